// Copyright (c) 2020 aerth <aerth@riseup.net>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// package greylist implements a basic whitelisting/blacklisting http middleware
//
// It reads 2 files (whitelist file, blacklist file), one IP per line, and
// can refresh them periodically. Blacklist(ip) adds a temporary ban, which
// the contact site uses for clients that keep hitting the rate limit.
package greylist

import (
	"bufio"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"sync"
	"time"
)

const DefaultTemporaryBlacklistTime = time.Hour

// List is a greylist instance
type List struct {
	whitelistFilename, blacklistFilename string
	whitelist, blacklist                 map[string]struct{}
	temporaryBlacklist                   map[string]time.Time
	modTimes                             map[string]time.Time
	lastRefresh                          time.Time
	mu                                   sync.RWMutex
	allMethods                           bool
	refreshRate                          time.Duration
	temporaryBlacklistTime               time.Duration
	now                                  func() time.Time
}

// New accepts whitelist filename, blacklist filename, and a refresh rate.
// Missing or empty files are not used, and read errors are not reported.
// refreshRate can be 0, in which case lists are only read here and by RefreshLists.
//
// By default, only non-GET requests are checked. See SetAllMethods.
func New(whitelistFilename, blacklistFilename string, refreshRate time.Duration) *List {
	l := &List{
		whitelistFilename:      whitelistFilename,
		blacklistFilename:      blacklistFilename,
		whitelist:              make(map[string]struct{}),
		blacklist:              make(map[string]struct{}),
		temporaryBlacklist:     make(map[string]time.Time),
		modTimes:               make(map[string]time.Time),
		temporaryBlacklistTime: DefaultTemporaryBlacklistTime,
		refreshRate:            refreshRate,
		now:                    time.Now,
	}
	l.RefreshLists()
	return l
}

// Protect wraps h.
//
//	http.ListenAndServe(":8080", glist.Protect(myHandler))
func (l *List) Protect(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l.serve(h, w, r)
	})
}

// SetAllMethods checks every request, GET included.
func (l *List) SetAllMethods(b bool) {
	l.allMethods = b
}

// SetTemporaryBlacklistTime sets the duration that offenders will be blacklisted for
func (l *List) SetTemporaryBlacklistTime(d time.Duration) {
	l.temporaryBlacklistTime = d
}

// Blacklist adds a temporary ban to an ip address
func (l *List) Blacklist(ip string) {
	l.mu.Lock()
	l.temporaryBlacklist[ip] = l.now().Add(l.temporaryBlacklistTime)
	l.mu.Unlock()
	log.Printf("greylist: blacklisting for %s: %q", l.temporaryBlacklistTime, ip)
}

// ClientIP is the key greylist uses for r.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func (l *List) serve(h http.Handler, w http.ResponseWriter, r *http.Request) {
	if !l.allMethods && r.Method == http.MethodGet {
		h.ServeHTTP(w, r)
		return
	}

	if l.refreshRate > 0 {
		l.mu.Lock()
		stale := l.now().Sub(l.lastRefresh) >= l.refreshRate
		if stale {
			l.lastRefresh = l.now()
		}
		l.mu.Unlock()
		if stale {
			go l.RefreshLists()
		}
	}

	ip := ClientIP(r)

	// locked for map reads, unlock before writing to conn
	l.mu.RLock()
	_, white := l.whitelist[ip]
	_, black := l.blacklist[ip]
	until, temporarilyBanned := l.temporaryBlacklist[ip]
	l.mu.RUnlock()

	switch {
	case white:
		h.ServeHTTP(w, r)
		return
	case black:
		log.Printf("greylist: blocking blacklisted ip %q", ip)
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	case temporarilyBanned:
		if left := until.Sub(l.now()); left > 0 {
			log.Printf("greylist: blocking (temp) blacklisted ip %q (until %s)", ip, left.Truncate(time.Second))
			http.Error(w, fmt.Sprintf("You have been blocked for %s", left.Truncate(time.Second)), http.StatusForbidden)
			return
		}
		log.Printf("greylist: removing temporary blacklist ip %q", ip)
		l.mu.Lock()
		delete(l.temporaryBlacklist, ip)
		l.mu.Unlock()
	}

	h.ServeHTTP(w, r)
}

// RefreshLists re-reads list files that changed since the last read.
// A file that cannot be opened leaves its list as it was.
func (l *List) RefreshLists() {
	t1 := time.Now()
	white, wok := l.readIfChanged(l.whitelistFilename)
	black, bok := l.readIfChanged(l.blacklistFilename)

	l.mu.Lock()
	if wok {
		l.whitelist = white
	}
	if bok {
		l.blacklist = black
	}
	l.lastRefresh = l.now()
	nw, nb := len(l.whitelist), len(l.blacklist)
	l.mu.Unlock()

	if l.refreshRate > 0 && (wok || bok) {
		log.Printf("greylist: refreshed lists from file in %s, whitelisted %d, blacklisted %d. next refresh is in %s.",
			time.Since(t1), nw, nb, l.refreshRate)
	}
}

func (l *List) readIfChanged(filename string) (map[string]struct{}, bool) {
	if filename == "" {
		return nil, false
	}
	f, err := os.Open(filename)
	if err != nil {
		return nil, false
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, false
	}
	l.mu.RLock()
	seen := l.modTimes[filename]
	l.mu.RUnlock()
	if !info.ModTime().After(seen) {
		return nil, false
	}

	list := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if ip := scanner.Text(); ip != "" {
			list[ip] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		log.Printf("error scanning %s: %v", filename, err)
	}

	l.mu.Lock()
	l.modTimes[filename] = info.ModTime()
	l.mu.Unlock()
	return list, true
}

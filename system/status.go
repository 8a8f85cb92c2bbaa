package system

import (
	"math"
	"net/http"
	"sync/atomic"
	"time"
)

type Stats struct {
	hits atomic.Uint64
	t1   time.Time
}

type statusReport struct {
	Hits    uint64  `json:"hits"`
	Average float64 `json:"hits-per-second,omitempty"`
	Uptime  float64 `json:"uptime,omitempty"`
}

func (st *Stats) report() statusReport {
	rep := statusReport{Hits: st.hits.Load()}
	if !st.t1.IsZero() {
		rep.Uptime = time.Since(st.t1).Truncate(time.Second).Seconds()
		if rep.Uptime > 0 {
			rep.Average = math.Round(float64(rep.Hits)/rep.Uptime*100) / 100
		}
	}
	return rep
}

func (s *System) StatusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Stats.report())
}

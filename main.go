package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aerth/folio/client"
	"github.com/aerth/folio/config"
	"github.com/aerth/folio/store"
	"github.com/aerth/folio/system"

	_ "net/http/pprof"
)

var info = "folio portfolio and contact form server"

const DefaultConfigPath = "config.json"
const DefaultListenAddrTLS = "127.0.0.1:1443"

func main() {

	// defaults
	var (
		devmode     = false
		addr        = config.DefaultListenAddr
		configpath  = DefaultConfigPath
		sslCert     = ""
		sslKey      = ""
		sslAddr     = DefaultListenAddrTLS
		showVersion = false
		send        = ""
		apiURL      = "http://" + config.DefaultListenAddr
		addUser     = ""
	)

	// flags
	flag.StringVar(&addr, "addr", addr, "address to serve")
	flag.BoolVar(&devmode, "dev", devmode, "development mode (insecure)")
	flag.StringVar(&configpath, "conf", configpath, "path to config.json (use - for stdin)")
	flag.StringVar(&sslCert, "sslcert", sslCert, "path to ssl cert")
	flag.StringVar(&sslKey, "sslkey", sslKey, "path to ssl key")
	flag.StringVar(&sslAddr, "ssladdr", sslAddr, "listen TLS if cert and key exist")
	flag.BoolVar(&showVersion, "version", false, "show version and exit")
	flag.StringVar(&send, "send", send, "send a contact message to -api and exit")
	flag.StringVar(&apiURL, "api", apiURL, "base url of the contact endpoint for -send")
	flag.StringVar(&addUser, "adduser", addUser, "store a user as id:name in the bolt user db and exit")
	doConfigDump := flag.Bool("dumpconfig", false, "dump config and exit")
	flag.Parse()

	log.SetPrefix("[folio] ")

	if showVersion {
		fmt.Println("folio", Version, "-", info)
		os.Exit(0)
	}

	// client mode
	if send != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		res, err := client.New(apiURL).Submit(ctx, send)
		if err != nil {
			log.Fatalln(err)
		}
		fmt.Println(res.String())
		if !res.OK() {
			os.Exit(1)
		}
		return
	}

	env, err := config.LoadEnvironment()
	if err != nil {
		log.Fatalln("environment error:", err)
	}

	// read config file or stdin
	cfg, err := config.Load(configpath, os.Stdin)
	switch {
	case err == nil:
		log.Println("read config from", configpath)
	case errors.Is(err, os.ErrNotExist) && configpath == DefaultConfigPath:
		log.Println("no", configpath, "found, using defaults")
		cfg = new(config.Config)
	default:
		log.Fatalln("error reading config:", err)
	}
	cfg.Meta.Version = "folio " + Version

	// override config with flag
	if devmode {
		cfg.Meta.DevelopmentMode = devmode
	}
	if cfg.Meta.DevelopmentMode {
		log.SetFlags(log.Lshortfile | log.LstdFlags)
	}
	if addr != config.DefaultListenAddr || cfg.Meta.ListenAddr == "" {
		cfg.Meta.ListenAddr = addr
	}
	if sslAddr != DefaultListenAddrTLS || cfg.Meta.ListenAddrTLS == "" {
		cfg.Meta.ListenAddrTLS = sslAddr
	}

	if err := config.CheckConfig(cfg, env); err != nil {
		log.Fatalln("config error:", err)
	}

	if *doConfigDump {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent(" ", " ")
		if err := enc.Encode(cfg); err != nil {
			log.Fatalln(err)
		}
		return
	}

	if addUser != "" {
		if err := doAddUser(cfg.Sec.BoltDB, addUser); err != nil {
			log.Fatalln("adduser:", err)
		}
		return
	}

	if os.Getenv("DEBUG") != "" {
		go func() {
			log.Println(http.ListenAndServe("localhost:6060", nil))
		}()
	}

	ctx := context.Background()
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	users, err := store.Open(openCtx, env.DatabaseURL, cfg.Sec.BoltDB)
	cancel()
	if err != nil {
		log.Println("user store unavailable:", err)
		users = nil
	}

	s, err := system.New(*cfg, env, users)
	if err != nil {
		log.Fatalln("boot error:", err)
	}
	defer s.Close()
	if env.Production() {
		log.Println("production mode: redirecting plain http to https")
	}

	if err := s.Run(ctx, s.Handler(), sslCert, sslKey); err != nil {
		log.Println(err)
	}
}

func doAddUser(path, arg string) error {
	id, name, ok := strings.Cut(arg, ":")
	if !ok || id == "" {
		return fmt.Errorf("want id:name, got %q", arg)
	}
	db, err := store.OpenBolt(path)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.PutUser(store.User{ID: id, Name: name}); err != nil {
		return err
	}
	log.Printf("stored user %q", id)
	return nil
}

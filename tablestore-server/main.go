package main

import (
	"flag"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	"github.com/ngaut/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kvstack/tablestore/config"
	"github.com/kvstack/tablestore/kv/server"
)

var (
	configPath = flag.String("config", "", "config file path")
	addr       = flag.String("addr", "", "listen address")
	statusAddr = flag.String("status", "", "status/metrics listen address")
)

func main() {
	flag.Parse()
	conf := loadConfig()
	log.SetLevelByString(conf.LogLevel)
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	log.Infof("conf %+v", *conf)

	srv := server.NewServer(conf)
	if err := srv.Listen(); err != nil {
		log.Fatal(err)
	}
	handleSignal(srv)

	if conf.StatusAddr != "" {
		go serveStatus(conf.StatusAddr)
	}

	if err := srv.Serve(); err != nil {
		log.Fatal(err)
	}
	log.Info("Server stopped.")
}

func loadConfig() *config.Config {
	conf, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *addr != "" {
		conf.Addr = *addr
	}
	if *statusAddr != "" {
		conf.StatusAddr = *statusAddr
	}
	// A bare port argument serves 0.0.0.0:<port>, the original CLI form.
	if flag.NArg() > 0 {
		conf.Addr = "0.0.0.0:" + flag.Arg(0)
	}
	if err := conf.Validate(); err != nil {
		log.Fatal(err)
	}
	return conf
}

func serveStatus(addr string) {
	log.Infof("status listening on %v", addr)
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/status", func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusOK)
	})
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Errorf("status server: %v", err)
	}
}

func handleSignal(srv *server.Server) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)
	go func() {
		sig := <-sigCh
		log.Infof("Got signal [%s] to exit.", sig)
		srv.Stop()
	}()
}

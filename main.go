package main

import (
	"flag"

	"github.com/golang/glog"
	"github.com/prebid/vast-resolver/config"
	"github.com/prebid/vast-resolver/router"
	"github.com/prebid/vast-resolver/server"
	"github.com/spf13/viper"
)

// Rev holds binary revision string
// Set manually at build time using:
//
//	go build -ldflags "-X main.Rev=`git rev-parse --short HEAD`"
var Rev string

// Version holds the release tag, set at build time the same way as Rev.
var Version string

func main() {
	flag.Parse() // required for glog flags and testing package flags

	cfg, err := loadConfig()
	if err != nil {
		glog.Exitf("Configuration could not be loaded or did not pass validation: %v", err)
	}

	err = serve(cfg)
	if err != nil {
		glog.Exitf("vast-resolver failed: %v", err)
	}
}

const configFileName = "vast-resolver"

func loadConfig() (*config.Configuration, error) {
	v := viper.New()
	config.SetupViper(v, configFileName)
	return config.New(v)
}

func serve(cfg *config.Configuration) error {
	r, err := router.New(cfg, Version, Rev)
	if err != nil {
		return err
	}
	defer r.Shutdown()

	corsRouter := router.SupportCORS(r)
	return server.Listen(cfg, router.NoCache{Handler: corsRouter}, router.Admin(Version, Rev, r.MetricsEngine), r.MetricsEngine)
}

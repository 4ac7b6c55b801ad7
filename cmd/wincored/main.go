// cmd/wincored/main.go
// WinCore coordinator daemon. Owns the shared timer table and per-thread
// input state that runtime processes reach over the bridge socket.

package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"time"

	"github.com/kardianos/service"
	"github.com/sirupsen/logrus"
	"github.com/zalando/go-keyring"

	"github.com/OsbornePro/WinCore/internal/config"
	"github.com/OsbornePro/WinCore/internal/usersrv"
)

const (
	keyringService = "WinCore"
	keyringToken   = "bridgeAccessToken"
)

var (
	version   = "dev"
	buildDate = "unknown"

	configPath = flag.String("config", "/etc/wincored/config.yaml", "path to config.yaml")
)

func init() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:    true,
		DisableColors:    true,
		QuoteEmptyFields: true,
	})
}

// loadOrCreateToken fetches the bridge access token from the system keyring,
// minting one on first run.
func loadOrCreateToken() ([]byte, error) {
	s, err := keyring.Get(keyringService, keyringToken)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return nil, err
	}
	if s != "" {
		return hex.DecodeString(s)
	}

	tok := make([]byte, 32)
	if _, err := rand.Read(tok); err != nil {
		return nil, err
	}
	if err := keyring.Set(keyringService, keyringToken, hex.EncodeToString(tok)); err != nil {
		return nil, err
	}
	logrus.Info("Generated new bridge access token")
	return tok, nil
}

func loadSettings() *config.Settings {
	cfg, err := config.Load(*configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logrus.WithError(err).Warn("config load failed, using defaults")
		}
		return config.Default()
	}
	return cfg
}

// Service
type program struct {
	quit chan struct{}
}

func (p *program) Start(s service.Service) error {
	p.quit = make(chan struct{})
	go p.run()
	return nil
}

func (p *program) run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := loadSettings()

	var sealer *usersrv.Sealer
	if cfg.Bridge.SealFrames {
		tok, err := loadOrCreateToken()
		if err != nil {
			logrus.Fatalf("Token init failed: %v", err)
		}
		if sealer, err = usersrv.NewSealer(tok); err != nil {
			logrus.Fatalf("Transport init failed: %v", err)
		}
	}

	if cfg.Bridge.Network == "unix" {
		// stale socket from an unclean shutdown
		_ = os.Remove(cfg.Bridge.Address)
	}
	ln, err := net.Listen(cfg.Bridge.Network, cfg.Bridge.Address)
	if err != nil {
		logrus.Fatalf("Bridge listen failed: %v", err)
	}

	go func() {
		<-p.quit
		cancel()
	}()

	logrus.WithFields(logrus.Fields{
		"network": cfg.Bridge.Network,
		"address": cfg.Bridge.Address,
		"sealed":  sealer != nil,
	}).Info("WinCore coordinator started")

	srv := usersrv.NewServer(sealer)
	if err := srv.Serve(ctx, ln); err != nil {
		logrus.WithError(err).Error("Bridge serve failed")
	}
	logrus.Info("WinCore coordinator stopped")
}

func (p *program) Stop(s service.Service) error {
	close(p.quit)
	time.Sleep(500 * time.Millisecond)
	return nil
}

func main() {
	flag.Parse()

	if flag.NArg() > 0 && flag.Arg(0) == "version" {
		fmt.Printf("wincored %s (built %s)\n", version, buildDate)
		os.Exit(0)
	}

	svcConfig := &service.Config{
		Name:        "WinCored",
		DisplayName: "WinCore Coordinator",
		Description: "Shared window timer and input-state coordinator",
	}

	prg := &program{}
	s, err := service.New(prg, svcConfig)
	if err != nil {
		logrus.Fatal(err)
	}

	if flag.NArg() > 0 {
		service.Control(s, flag.Arg(0))
		return
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() { <-c; s.Stop() }()

	if err := s.Run(); err != nil {
		logrus.Fatal(err)
	}
}

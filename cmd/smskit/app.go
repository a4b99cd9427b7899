package main

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/spachava753/smskit/android"
	"github.com/spachava753/smskit/gateway"
	"github.com/spachava753/smskit/internal/config"
	"github.com/spachava753/smskit/internal/metrics"
	"github.com/spachava753/smskit/macos/messages"
	"github.com/spachava753/smskit/sms"
	"github.com/spachava753/smskit/sms/gsm"
	"github.com/spachava753/smskit/smsbackup"
)

// app holds the wired service and everything that must be released with it.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	metrics *metrics.Metrics
	svc     *sms.Service
	closers []io.Closer
}

func newApp(cfg *config.Config, log *zap.Logger) (*app, error) {
	a := &app{
		cfg:     cfg,
		log:     log,
		metrics: metrics.New(prometheus.NewRegistry()),
	}

	store, err := a.openStore()
	if err != nil {
		return nil, err
	}

	transport, err := a.openTransport()
	if err != nil {
		a.Close()
		return nil, err
	}

	a.svc = sms.NewService(store, transport, gateFor(cfg.Permissions),
		sms.WithPolicy(policyFor(cfg.Segment)),
		sms.WithLogger(log.Named("sms")),
		sms.WithObserver(a.metrics),
	)
	return a, nil
}

func (a *app) openStore() (sms.Store, error) {
	switch a.cfg.Store.Kind {
	case config.StoreBackup:
		return smsbackup.New(smsbackup.Config{
			Addr:     a.cfg.Backup.Addr,
			Username: a.cfg.Backup.Username,
			Password: a.cfg.Backup.Password,
			Mailbox:  a.cfg.Backup.Mailbox,
		})
	case config.StoreMessages:
		store, err := messages.Open(a.cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		store.Service = a.cfg.Store.Service
		a.closers = append(a.closers, store)
		return store, nil
	case config.StoreAndroid:
		store, err := android.Open(a.cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store kind %q", a.cfg.Store.Kind)
	}
}

// openTransport returns nil when sending is not configured.
func (a *app) openTransport() (sms.Transport, error) {
	if !a.cfg.SendEnabled() {
		return nil, nil
	}
	if a.cfg.Transport == config.TransportMessages {
		return messages.NewTransport(), nil
	}
	gw := a.cfg.Gateway
	tr, err := gateway.New(gateway.Config{
		Addr:      gw.Addr,
		Security:  gw.Security,
		Username:  gw.Username,
		Password:  gw.Password,
		From:      gw.From,
		Domain:    gw.Domain,
		PerSecond: gw.PerSecond,
		Burst:     gw.Burst,
	})
	if err != nil {
		return nil, err
	}
	return tr, nil
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.log.Warn("closing resource failed", zap.Error(err))
		}
	}
	a.closers = nil
}

func gateFor(p config.PermissionsConfig) *sms.StaticGate {
	var granted []sms.Capability
	if p.Read {
		granted = append(granted, sms.CapabilityRead)
	}
	if p.Send {
		granted = append(granted, sms.CapabilitySend)
	}
	return sms.NewStaticGate(granted...)
}

func policyFor(s config.SegmentConfig) sms.Policy {
	if s.Policy == config.PolicyGSM {
		return gsm.Policy{}
	}
	return sms.UnitLimit(s.Threshold)
}

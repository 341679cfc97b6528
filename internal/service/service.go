// Package service assembles the HTTP API and the event router into one runnable process.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"farmacia/m/internal/api"
	"farmacia/m/internal/config"
	"farmacia/m/internal/events"
	"farmacia/m/internal/logging"
	"farmacia/m/internal/medications"
	"farmacia/m/internal/sales"
)

const shutdownTimeout = 10 * time.Second

type Service struct {
	watermillRouter *message.Router
	pubSub          *gochannel.GoChannel
	httpServer      *http.Server
	logger          logrus.FieldLogger
}

func New(cfg config.Config, db *sqlx.DB, logger *logrus.Logger) (Service, error) {
	watermillLogger := logging.NewWatermill(logger.WithField("component", "events"))

	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, watermillLogger)

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: shutdownTimeout}, watermillLogger)
	if err != nil {
		return Service{}, fmt.Errorf("could not create event router: %w", err)
	}
	if err := events.NewProcessor(router, pubSub, watermillLogger, events.NewLowStockHandler(logger, nil)); err != nil {
		return Service{}, err
	}

	bus, err := events.NewBus(pubSub, watermillLogger)
	if err != nil {
		return Service{}, err
	}

	handler := api.New(
		medications.NewService(db, bus, logger),
		sales.NewService(db, bus, logger),
		logger,
		api.Options{AllowedOrigins: cfg.AllowedOrigins, Metrics: cfg.MetricsEnabled},
	)

	return Service{
		watermillRouter: router,
		pubSub:          pubSub,
		httpServer: &http.Server{
			Addr:              ":" + cfg.HTTPPort,
			Handler:           handler.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}, nil
}

// Run serves until ctx is cancelled or either component fails.
func (s Service) Run(ctx context.Context) error {
	errgrp, ctx := errgroup.WithContext(ctx)

	errgrp.Go(func() error {
		return s.watermillRouter.Run(ctx)
	})

	errgrp.Go(func() error {
		// stock events published before the router subscribes would be dropped
		select {
		case <-s.watermillRouter.Running():
		case <-ctx.Done():
			return nil
		}

		s.logger.WithField("addr", s.httpServer.Addr).Info("farmacia server starting")
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	errgrp.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := s.httpServer.Shutdown(shutdownCtx)
		if closeErr := s.pubSub.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		return err
	})

	return errgrp.Wait()
}

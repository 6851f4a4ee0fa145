package store

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/kusina/internal/config"
	menurepo "github.com/Additional-Code/kusina/internal/repository/menu"
	orderrepo "github.com/Additional-Code/kusina/internal/repository/order"
)

// Module provides the store to Fx.
var Module = fx.Provide(Provide)

// Provide builds a Store using the kitchen defaults from configuration.
func Provide(cfg config.Config, menu *menurepo.Repository, orders *orderrepo.Repository, logger *zap.Logger) *Store {
	return New(menu, orders, logger, WithDefaults(cfg.Kitchen.DefaultCategory, cfg.Kitchen.DefaultCustomer))
}

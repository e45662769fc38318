package app

import (
	"tipline/config"
	"tipline/database"
)

type App struct {
	*database.Store
	config.Config
}

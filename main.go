package main

import (
	"github.com/ktwom22/plater8te/config"
	"github.com/ktwom22/plater8te/models"
	"github.com/ktwom22/plater8te/routes"
	"github.com/ktwom22/plater8te/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{},
		&models.Restaurant{},
		&models.Category{},
		&models.Plate{},
		&models.UserPlate{},
		&models.Comment{},
		&models.PageView{},
	)

	if err := models.SeedCategories(db); err != nil {
		utils.Sugar.Fatalf("category seeding failed: %v", err)
	}

	r := routes.SetupRouter(db)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}

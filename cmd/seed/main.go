// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"fmt"
	"os"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/capability"
	"partsledger/internal/core/types"
	"partsledger/internal/domain/auth"
	"partsledger/internal/domain/catalogs/part"
	"partsledger/internal/domain/catalogs/supplier"
	"partsledger/internal/domain/catalogs/truck"
	"partsledger/internal/infrastructure/storage/postgres"
	"partsledger/internal/infrastructure/storage/postgres/auth_repo"
	"partsledger/internal/infrastructure/storage/postgres/catalog_repo"
	"partsledger/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	if err := postgres.Migrate(ctx, dsn); err != nil {
		log.Fatalw("migrations failed", "error", err)
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)

	if err := seedAdminUser(ctx, txManager, log); err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(ctx, txManager, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedAdminUser(ctx context.Context, txManager *postgres.TxManager, log *logger.Logger) error {
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "Admin123!"
	}

	userRepo := auth_repo.NewUserRepo(txManager)
	if _, err := userRepo.GetByUsername(ctx, "admin"); err == nil {
		log.Info("admin user already exists, skipping")
		return nil
	} else if !apperror.IsNotFound(err) {
		return err
	}

	authService := auth.NewService(userRepo, txManager, auth.Config{
		Secret: []byte("seed-only"),
	})
	u, err := authService.CreateUser(ctx, "admin", password, "Administrator",
		[]string{capability.Admin})
	if err != nil {
		return err
	}

	log.Infow("admin user created", "user_id", u.ID)
	return nil
}

func seedDemoData(ctx context.Context, txManager *postgres.TxManager, log *logger.Logger) error {
	supplierService := supplier.NewService(catalog_repo.NewSupplierRepo(txManager), txManager)
	partService := part.NewService(catalog_repo.NewPartRepo(txManager), txManager)
	truckService := truck.NewService(catalog_repo.NewTruckRepo(txManager), txManager)

	suppliers := []*supplier.Supplier{
		func() *supplier.Supplier {
			s := supplier.New("Ferguson Plumbing Supply")
			s.Code = "FERG"
			s.Phone = "555-0101"
			return s
		}(),
		func() *supplier.Supplier {
			s := supplier.New("City Supply House")
			s.Code = "CITY"
			s.IsSupplyHouse = true
			s.OperatingHours = "Mon-Sat 6:00-18:00"
			return s
		}(),
	}
	for _, s := range suppliers {
		if err := supplierService.Create(ctx, s); err != nil {
			if apperror.IsCode(err, apperror.CodeDuplicate) {
				continue
			}
			return err
		}
	}

	parts := []*part.Part{
		func() *part.Part {
			p := part.New("CU-12-050", `1/2" copper pipe, 10ft`)
			p.UnitCost = types.NewMoney(12.40)
			p.MinQuantity = types.NewQuantityFromInt(20)
			return p
		}(),
		func() *part.Part {
			p := part.New("PVC-ELL-075", `3/4" PVC elbow`)
			p.UnitCost = types.NewMoney(0.89)
			p.MinQuantity = types.NewQuantityFromInt(50)
			return p
		}(),
	}
	for _, p := range parts {
		if err := partService.Create(ctx, p); err != nil {
			if apperror.IsCode(err, apperror.CodeDuplicate) {
				continue
			}
			return err
		}
	}

	trucks := []*truck.Truck{
		truck.New("T-01", "Service Truck 1"),
		truck.New("T-02", "Service Truck 2"),
	}
	for _, t := range trucks {
		if err := truckService.Create(ctx, t); err != nil {
			if apperror.IsCode(err, apperror.CodeDuplicate) {
				continue
			}
			return err
		}
	}

	log.Info("demo data seeded")
	return nil
}

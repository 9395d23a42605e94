// seed carga el catálogo inicial de productos desde un CSV exportado del sistema anterior.
//
// Uso: go run ./cmd/seed [-encoding latin1] [-actor 1] productos.csv
// Columnas: sku,nombre,descripcion,precio,costo,stock_minimo,stock_inicial
// El stock inicial entra como ajuste en el kardex, igual que al crear el producto por la API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/pos-inventario-api/internal/application/catalog"
	"github.com/jhoicas/pos-inventario-api/internal/application/inventory"
	"github.com/jhoicas/pos-inventario-api/internal/domain"
	"github.com/jhoicas/pos-inventario-api/internal/infrastructure/postgres"
	"github.com/jhoicas/pos-inventario-api/pkg/config"
	"github.com/jhoicas/pos-inventario-api/pkg/logger"
)

func main() {
	encoding := flag.String("encoding", "utf-8", "codificación del CSV: utf-8 | latin1")
	actorID := flag.Int64("actor", 1, "ID del usuario que figura como creador")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "uso: seed [-encoding latin1] [-actor 1] productos.csv")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).Named("seed")

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		log.Fatal().Err(err).Msg("abrir CSV")
	}
	defer f.Close()

	rows, err := parseProducts(f, *encoding)
	if err != nil {
		log.Fatal().Err(err).Msg("leer CSV")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	if err := postgres.Migrate(pool, log); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}

	uc := catalog.NewProductUseCase(
		postgres.NewTxRunner(pool, cfg.DB.LockTimeout),
		postgres.Repos(pool),
		inventory.NewStockMutator(log),
		log,
	)

	var created, skipped int
	for _, row := range rows {
		if _, err := uc.Create(ctx, *actorID, row.Request); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				skipped++
				log.Warn().Int("line", row.Line).Str("sku", row.Request.SKU).Msg("SKU existente, se omite")
				continue
			}
			log.Fatal().Err(err).Int("line", row.Line).Str("sku", row.Request.SKU).Msg("crear producto")
		}
		created++
	}
	log.Info().Int("created", created).Int("skipped", skipped).Msg("carga de catálogo terminada")
}

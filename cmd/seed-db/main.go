package main

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/xenking/storefront-backoffice/db"
	"github.com/xenking/storefront-backoffice/internal/catalog"
	"github.com/xenking/storefront-backoffice/internal/domain/auth"
	"github.com/xenking/storefront-backoffice/internal/domain/product"
	"github.com/xenking/storefront-backoffice/internal/domain/rule"
	"github.com/xenking/storefront-backoffice/internal/domain/user"
	"github.com/xenking/storefront-backoffice/internal/domain/validate"
	"github.com/xenking/storefront-backoffice/internal/events"
	"github.com/xenking/storefront-backoffice/internal/repository"
)

func main() {
	var (
		databaseURL  string
		productsFile string
		password     string
		bcryptCost   int
	)

	pflag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	pflag.StringVar(&productsFile, "products-file", "", "path to a products JSON file (default: embedded demo catalog)")
	pflag.StringVar(&password, "demo-password", "", "password of the demo users (or STORE_SEED_PASSWORD env)")
	pflag.IntVar(&bcryptCost, "bcrypt-cost", 10, "bcrypt cost for demo user passwords")
	pflag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if password == "" {
		password = os.Getenv("STORE_SEED_PASSWORD")
	}
	if password == "" {
		slog.Error("demo password is required: set --demo-password or STORE_SEED_PASSWORD")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, password, bcryptCost); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, password string, cost int) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(databaseURL, zap.NewNop()); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, pool, productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedRules(ctx, pool); err != nil {
		return errors.Wrap(err, "seed business rules")
	}

	if err := seedUsers(ctx, pool, password, cost); err != nil {
		return errors.Wrap(err, "seed users")
	}

	return nil
}

func openProducts(productsFile string) (io.ReadCloser, error) {
	if productsFile == "" {
		slog.Info("reading embedded products")
		return db.Seed.Open("seed/products.json")
	}
	slog.Info("reading products file", slog.String("path", productsFile))
	return os.Open(productsFile)
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, productsFile string) error {
	f, err := openProducts(productsFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errors.Wrapf(err, "products file %q", productsFile)
		}
		return errors.Wrap(err, "open products")
	}
	defer func() { _ = f.Close() }()

	recs, err := catalog.ReadJSON(f)
	if err != nil {
		return errors.Wrap(err, "parse products")
	}

	now := time.Now().UTC()
	batch := make([]product.Product, 0, len(recs))
	for i := range recs {
		batch = append(batch, recs[i].Product(now))
	}

	slog.Info("upserting products", slog.Int("count", len(batch)))

	if err := repository.NewProductRepository(pool).UpsertBatch(ctx, batch); err != nil {
		return errors.Wrap(err, "upsert products")
	}
	return nil
}

func seedRules(ctx context.Context, pool *pgxpool.Pool) error {
	rules := rule.Defaults()
	if err := repository.NewRuleRepository(pool).Upsert(ctx, rules...); err != nil {
		return err
	}
	for _, rl := range rules {
		slog.Info("upserted business rule", slog.String("key", rl.Key), slog.String("value", rl.Value))
	}
	return nil
}

// demoUsers are created once; existing accounts are left untouched.
var demoUsers = []struct {
	username, email, first, last string
	role                         user.Role
}{
	{"admin", "admin@store.local", "Ada", "Admin", user.RoleAdmin},
	{"manager", "manager@store.local", "Max", "Manager", user.RoleManager},
	{"customer", "customer@store.local", "Cleo", "Customer", user.RoleCustomer},
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool, password string, cost int) error {
	svc := user.NewService(
		repository.NewUserRepository(pool),
		auth.NewBcryptHasher(cost),
		events.NopPublisher{},
		validate.New(),
	)

	for _, d := range demoUsers {
		u, err := svc.Create(ctx, user.Input{
			Username: d.username,
			Email:    d.email,
			Password: password,
			Phone:    "+15550100000",
			Status:   user.StatusActive,
			Role:     d.role,
			Name:     user.NameInput{Firstname: d.first, Lastname: d.last},
			Address: user.AddressInput{
				City:        "Springfield",
				Street:      "Main Street",
				Number:      "742",
				ZipCode:     "12345678",
				Geolocation: user.GeolocationInput{Lat: "39.7817", Long: "-89.6501"},
			},
		})
		switch {
		case errors.Is(err, user.ErrEmailExists), errors.Is(err, user.ErrUsernameExists):
			slog.Info("demo user exists", slog.String("username", d.username))
			continue
		case err != nil:
			return errors.Wrapf(err, "create %s", d.username)
		}
		slog.Info("created demo user", slog.String("id", u.ID), slog.String("username", d.username), slog.String("role", string(d.role)))
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jpalmerr/mideployer"
)

// BuildOptions converts parsed configuration into SDK options.
//
// Products and users are only set when the configuration names them, so
// an empty configuration runs the built-in catalog.
func BuildOptions(cfg *Config) ([]mideployer.Option, error) {
	opts := []mideployer.Option{
		mideployer.WithPort(cfg.Port),
		mideployer.WithTickInterval(cfg.TickInterval.Duration()),
		mideployer.WithCountdown(cfg.Countdown),
	}
	if cfg.Title != "" {
		opts = append(opts, mideployer.WithTitle(cfg.Title))
	}

	products, err := buildConfiguredProducts(cfg)
	if err != nil {
		return nil, err
	}
	if len(products) > 0 {
		opts = append(opts, mideployer.WithProducts(products...))
	}

	users, ok, err := buildConfiguredUsers(cfg)
	if err != nil {
		return nil, err
	}
	if ok {
		opts = append(opts, mideployer.WithUsers(users...))
	}

	return opts, nil
}

// BuildProducts returns the products the configuration describes, or the
// built-in catalog when it describes none.
func BuildProducts(cfg *Config) ([]mideployer.Product, error) {
	products, err := buildConfiguredProducts(cfg)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return mideployer.DefaultProducts()
	}
	return products, nil
}

// BuildUsers returns the users the configuration describes, or the
// built-in directory when it describes none.
func BuildUsers(cfg *Config) ([]mideployer.User, error) {
	users, ok, err := buildConfiguredUsers(cfg)
	if err != nil {
		return nil, err
	}
	if !ok {
		return mideployer.DefaultUsers()
	}
	return users, nil
}

// buildConfiguredProducts converts products, then grids, in file order.
func buildConfiguredProducts(cfg *Config) ([]mideployer.Product, error) {
	var products []mideployer.Product

	for i, pc := range cfg.Products {
		p, err := mideployer.NewProduct(pc.Name, pc.Servers...)
		if err != nil {
			return nil, fmt.Errorf("products[%d]: %w", i, err)
		}
		products = append(products, p)
	}

	for i, gc := range cfg.Grids {
		p, err := mideployer.NewProductGrid(gc.Name,
			mideployer.WithHostTemplate(gc.HostTemplate),
			mideployer.WithDimensions(gc.Dimensions),
		)
		if err != nil {
			return nil, fmt.Errorf("grids[%d]: %w", i, err)
		}
		products = append(products, p)
	}

	return products, nil
}

// buildConfiguredUsers reads users_file or the inline users. ok is false
// when neither is set.
func buildConfiguredUsers(cfg *Config) (users []mideployer.User, ok bool, err error) {
	if cfg.UsersFile != "" {
		path := cfg.UsersFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.baseDir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, false, fmt.Errorf("failed to read users_file: %w", err)
		}
		users, err := mideployer.ParseUsers(data)
		if err != nil {
			return nil, false, fmt.Errorf("users_file %s: %w", path, err)
		}
		return users, true, nil
	}

	if len(cfg.Users) == 0 {
		return nil, false, nil
	}

	users = make([]mideployer.User, len(cfg.Users))
	for i, u := range cfg.Users {
		users[i] = mideployer.User{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName}
	}
	return users, true, nil
}

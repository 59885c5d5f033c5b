package storage

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(32) NOT NULL,
		shop_name VARCHAR(255) NOT NULL DEFAULT '',
		location VARCHAR(255) NOT NULL DEFAULT '',
		created_at DATETIME(6) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		image VARCHAR(1024) NOT NULL,
		category VARCHAR(255) NOT NULL DEFAULT '',
		base_price DOUBLE NOT NULL,
		created_at DATETIME(6) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS retailer_inventory (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		retailer_id BIGINT NOT NULL,
		product_id BIGINT NOT NULL,
		wholesaler_id BIGINT NULL,
		price DOUBLE NOT NULL,
		stock INT NOT NULL,
		version INT NOT NULL DEFAULT 0,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_retailer_product (retailer_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		customer_id BIGINT NOT NULL,
		retailer_id BIGINT NOT NULL,
		total_amount DOUBLE NOT NULL,
		payment_mode VARCHAR(64) NOT NULL DEFAULT '',
		order_status VARCHAR(64) NOT NULL,
		created_at DATETIME(6) NOT NULL,
		KEY idx_orders_customer (customer_id),
		KEY idx_orders_retailer (retailer_id)
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		order_id BIGINT NOT NULL,
		product_id BIGINT NOT NULL,
		quantity INT NOT NULL,
		price_at_purchase DOUBLE NOT NULL,
		KEY idx_order_items_order (order_id)
	)`,
	`CREATE TABLE IF NOT EXISTS wholesale_orders (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		retailer_id BIGINT NOT NULL,
		product_id BIGINT NOT NULL,
		quantity INT NOT NULL,
		status VARCHAR(32) NOT NULL,
		created_at DATETIME(6) NOT NULL,
		KEY idx_wholesale_status (status)
	)`,
	`CREATE TABLE IF NOT EXISTS feedback (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		product_id BIGINT NOT NULL,
		customer_id BIGINT NOT NULL,
		order_id BIGINT NULL,
		rating INT NOT NULL,
		comment TEXT NOT NULL,
		created_at DATETIME(6) NOT NULL,
		KEY idx_feedback_product (product_id)
	)`,
}

// Migrate creates any missing tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

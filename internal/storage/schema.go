package storage

// SchemaStatements creates (if missing) every table the service uses. The two
// deletion policies called out in the data model are expressed as FK actions:
// CASCADE where the child cannot outlive the parent (option items, order
// items, item options) and SET NULL where it can (products keep living when
// their category goes away, snapshots keep living when the catalog entry
// does).
var SchemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
        id BIGINT AUTO_INCREMENT PRIMARY KEY,
        name VARCHAR(120) NOT NULL,
        phone VARCHAR(32) NOT NULL UNIQUE,
        password_hash VARCHAR(255) NOT NULL,
        role VARCHAR(16) NOT NULL DEFAULT 'admin',
        created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	`CREATE TABLE IF NOT EXISTS categories (
        id BIGINT AUTO_INCREMENT PRIMARY KEY,
        name VARCHAR(120) NOT NULL UNIQUE
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	`CREATE TABLE IF NOT EXISTS products (
        id BIGINT AUTO_INCREMENT PRIMARY KEY,
        name VARCHAR(255) NOT NULL,
        base_price DECIMAL(12,2) NOT NULL,
        description TEXT NULL,
        image_filename VARCHAR(255) NULL,
        category_id BIGINT NULL,
        created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
        CONSTRAINT fk_products_category FOREIGN KEY (category_id)
            REFERENCES categories (id) ON DELETE SET NULL
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	`CREATE TABLE IF NOT EXISTS option_groups (
        id BIGINT AUTO_INCREMENT PRIMARY KEY,
        name VARCHAR(120) NOT NULL UNIQUE,
        select_type VARCHAR(16) NOT NULL DEFAULT 'single',
        is_required BOOLEAN NOT NULL DEFAULT FALSE
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	`CREATE TABLE IF NOT EXISTS option_items (
        id BIGINT AUTO_INCREMENT PRIMARY KEY,
        group_id BIGINT NOT NULL,
        name VARCHAR(120) NOT NULL,
        price DECIMAL(12,2) NOT NULL DEFAULT 0,
        image_filename VARCHAR(255) NULL,
        CONSTRAINT fk_option_items_group FOREIGN KEY (group_id)
            REFERENCES option_groups (id) ON DELETE CASCADE
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	`CREATE TABLE IF NOT EXISTS product_option_groups (
        product_id BIGINT NOT NULL,
        group_id BIGINT NOT NULL,
        PRIMARY KEY (product_id, group_id),
        CONSTRAINT fk_pog_product FOREIGN KEY (product_id)
            REFERENCES products (id) ON DELETE CASCADE,
        CONSTRAINT fk_pog_group FOREIGN KEY (group_id)
            REFERENCES option_groups (id) ON DELETE CASCADE
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	`CREATE TABLE IF NOT EXISTS orders (
        id BIGINT AUTO_INCREMENT PRIMARY KEY,
        customer_name VARCHAR(255) NOT NULL,
        take_away BOOLEAN NOT NULL DEFAULT FALSE,
        total DECIMAL(12,2) NOT NULL DEFAULT 0,
        status VARCHAR(16) NOT NULL DEFAULT 'active',
        created_at TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
        closed_at TIMESTAMP(6) NULL,
        guest_seq INT NOT NULL,
        guest_date CHAR(10) NOT NULL,
        INDEX idx_orders_status (status),
        INDEX idx_orders_created_at (created_at)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	`CREATE TABLE IF NOT EXISTS order_items (
        id BIGINT AUTO_INCREMENT PRIMARY KEY,
        order_id BIGINT NOT NULL,
        product_id BIGINT NULL,
        name_snapshot VARCHAR(255) NOT NULL,
        unit_price DECIMAL(12,2) NOT NULL,
        qty INT NOT NULL,
        INDEX idx_order_items_order (order_id),
        CONSTRAINT fk_order_items_order FOREIGN KEY (order_id)
            REFERENCES orders (id) ON DELETE CASCADE,
        CONSTRAINT fk_order_items_product FOREIGN KEY (product_id)
            REFERENCES products (id) ON DELETE SET NULL
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	`CREATE TABLE IF NOT EXISTS order_item_options (
        id BIGINT AUTO_INCREMENT PRIMARY KEY,
        item_id BIGINT NOT NULL,
        option_item_id BIGINT NULL,
        name_snapshot VARCHAR(120) NOT NULL,
        price DECIMAL(12,2) NOT NULL,
        INDEX idx_order_item_options_item (item_id),
        CONSTRAINT fk_oio_item FOREIGN KEY (item_id)
            REFERENCES order_items (id) ON DELETE CASCADE,
        CONSTRAINT fk_oio_option_item FOREIGN KEY (option_item_id)
            REFERENCES option_items (id) ON DELETE SET NULL
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

	`CREATE TABLE IF NOT EXISTS guest_counters (
        day CHAR(10) PRIMARY KEY,
        seq INT NOT NULL
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,
}

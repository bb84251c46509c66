package config

import "time"

// DBPoolConfig tunes the MySQL connection pool and the startup connect
// retry.
type DBPoolConfig struct {
	MaxOpenConns    int           // DB_MAX_OPEN_CONNS
	MaxIdleConns    int           // DB_MAX_IDLE_CONNS
	ConnMaxLifetime time.Duration // DB_CONN_MAX_LIFETIME
	ConnectAttempts int           // DB_CONNECT_ATTEMPTS
	ConnectBackoff  time.Duration // DB_CONNECT_BACKOFF, doubled after every failed attempt
}

func LoadDBPoolConfig() DBPoolConfig {
	c := DBPoolConfig{
		MaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    envInt("DB_MAX_IDLE_CONNS", 25),
		ConnMaxLifetime: envDur("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		ConnectAttempts: envInt("DB_CONNECT_ATTEMPTS", 5),
		ConnectBackoff:  envDur("DB_CONNECT_BACKOFF", time.Second),
	}
	if c.ConnectAttempts < 1 {
		c.ConnectAttempts = 1
	}
	return c
}

// Package config loads typed configuration structs from environment variables.
//
// Every jobkit package that needs settings exposes a Config struct tagged for
// github.com/caarlos0/env (for example queue.Config, crm.Config, redis.Config).
// Load fills such a struct, reading a .env file first when one exists, and
// caches the result per type so repeated loads across a process are cheap and
// consistent.
package config

// Package config loads runtime configuration for the careerkit CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   backend base URL
//	-d string   shared storage file
//	-i int      session check interval (seconds)
//	-l string   log level
//	-f string   log format
//
// # JSON schema
//
// Durations accept strings like "5m" or integer nanoseconds:
//
//	{
//	  "server_url": "https://careerkit.example",
//	  "storage_path": "/home/ada/.config/careerkit/careerkit.db",
//	  "session_check_interval": "5m",
//	  "storage_poll_interval": "500ms",
//	  "sign_out_delay": "1.5s",
//	  "request_timeout": "2m",
//	  "generate_cost": 1,
//	  "refine_cost": 0.5,
//	  "log_format": "console",
//	  "log_level": "info"
//	}
package config

// Package config loads the livevalidate configuration.
//
// The configuration lives in livevalidate.yaml. Every setting has a default,
// so the file is optional, and most settings can be overridden with
// LIVEVALIDATE_* environment variables.
//
// # Configuration File Structure
//
//	server:
//	  addr: ":8080"
//	  read_timeout: 10s
//	  write_timeout: 10s
//	  shutdown_timeout: 15s
//	  max_message_size: 1048576
//	  allowed_origins: ["https://app.example.com"]
//	pages:
//	  dir: ./pages
//	  # or
//	  s3:
//	    bucket: forms
//	    prefix: pages/
//	    region: eu-west-1
//	validation:
//	  locale: es
//	  messages:
//	    required: "Obligatorio."
//	  marker: data-validate
//	  container_classes: [mb-3, form-group]
//	metrics:
//	  enabled: true
//	  path: /metrics
//	tracing:
//	  enabled: false
//	logging:
//	  level: info
//	  format: text
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    return err
//	}
//	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
//	    return err
//	}
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
package config

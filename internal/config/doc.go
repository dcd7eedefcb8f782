// Package config loads the runtime configuration of ecsrt: a YAML (or JSON)
// file, an optional .env file and ECSRT_* environment variables, in that
// order of increasing precedence.
//
// Example:
//
//	cfg, err := config.Load("ecsrt.yaml")
//	if err != nil {
//		return err
//	}
//	if err := config.LoadEnv(&cfg, ".env"); err != nil {
//		return err
//	}
//	flags, err := cfg.Flags()
//	if err != nil {
//		return err
//	}
//	opts, err := cfg.WorldOptions()
//	if err != nil {
//		return err
//	}
//	w, err := world.Build(flags, opts...)
package config

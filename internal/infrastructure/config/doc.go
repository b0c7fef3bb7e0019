// Package config handles loading and validating huekeep configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - The bridge API key is a credential; prefer HUEKEEP_BRIDGE_API_KEY over
//     placing it in the config file
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("huekeep.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Bridge.Address)
//
// The config file is optional: every value needed for a backup or restore run
// can be supplied on the command line, with config.Default() filling the rest.
package config

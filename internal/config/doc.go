// Package config manages user-level settings stored at ~/.taassist/config.yaml.
// It provides functions to load, read, and write configuration keys such as
// the actions and graphs output paths, the template directory, the catalog
// scan interval and custom parameter type aliases.
package config

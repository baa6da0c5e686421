// Package config provides configuration management for forrest.
//
// Configuration is loaded from a single directory, ~/.config/forrest by
// default or the directory given with --config-path. The directory holds:
//   - config.yaml: the settings bundle (see ForrestConfig)
//   - .env (optional): environment variables referenced as ${NAME} in config.yaml
//
// Loading starts from GetDefaultConfig and overlays the file, so any key
// left out keeps its default. The packaged template can be copied into a
// directory with Publish (exposed as 'forrest config publish').
//
// Validate reports missing credentials and inconsistent storage settings as
// ValidationErrors. It deliberately ignores unrecognized values of
// authentication and storage.type: how those are treated is decided when
// the client is built.
package config

// Package config loads scriptflow configuration.
//
// Values are resolved in this order, later sources winning:
//  1. Default()
//  2. the TOML file (scriptflow.toml in the working directory, or an explicit path)
//  3. environment variables, including those loaded from a .env file:
//     OPENAI_API_KEY, BRAVE_API_KEY and the SCRIPTFLOW_* overrides
package config

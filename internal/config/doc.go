// Package config loads mydos configuration.
//
// Values are layered, lowest precedence first:
//
//  1. an optional YAML file (MYDOS_CONFIG), in which ${VAR} placeholders are
//     replaced with environment values
//  2. a .env file in the working directory, skipped when running on AWS Lambda
//  3. the process environment
//  4. an optional AWS Secrets Manager secret (MYDOS_SECRET_ID) holding a JSON
//     object keyed by environment variable name
//
// Validate reports every missing required variable at once.
package config

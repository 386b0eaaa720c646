// Package lambda adapts the request handler to AWS Lambda behind an API
// Gateway REST proxy integration.
package lambda

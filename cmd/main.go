// This file is for running the connector as a long-lived server.
// For Cloud Functions, the function.go file is used instead.

package main

import (
	"go.uber.org/fx"

	"github.com/josejalvarezm/payments-webhook-connector/internal/app"
)

func main() {
	fx.New(app.Module).Run()
}

package main

import (
	"go.uber.org/fx"

	"github.com/birkolabs/vitrin/internal/app"
)

func main() {
	fx.New(app.Module).Run()
}

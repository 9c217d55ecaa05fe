//go:build wireinject

package app

import (
	"net/http"

	"github.com/google/wire"
	"github.com/guvenlisinav/proctor/internal/conf"
	"github.com/guvenlisinav/proctor/internal/data"
	"github.com/guvenlisinav/proctor/internal/web/api"
)

func wireApp(bc *conf.Bootstrap) (http.Handler, func(), error) {
	panic(wire.Build(data.ProviderSet, api.ProviderVersionSet, api.ProviderSet))
}

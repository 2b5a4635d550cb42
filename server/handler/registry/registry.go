package registry

import "github.com/gin-gonic/gin"

// Registrar is implemented by every handler package to mount its routes.
type Registrar interface {
	Register(r gin.IRouter)
}

// RegisterAll mounts every non-nil registrar on r in order.
func RegisterAll(r gin.IRouter, registrars ...Registrar) {
	for _, reg := range registrars {
		if reg != nil {
			reg.Register(r)
		}
	}
}

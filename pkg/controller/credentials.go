package controller

import "github.com/openimpair/controlplane/pkg/store"

// Product names a chassis family
// (`Credentials := {product ∈ {Valkyrie, Chimera, …},...}`). Simulator
// addresses the in-memory/Docker-backed development transports rather than
// a real chassis.
type Product string

const (
	ProductValkyrie  Product = "Valkyrie"
	ProductChimera   Product = "Chimera"
	ProductSimulator Product = "Simulator"
)

// Credentials is what addTester takes: which product, where it lives, and
// the password to authenticate with. Password is never logged or included
// in String().
type Credentials struct {
	Product  Product
	Host     string
	Port     uint16
	Password string
}

// String redacts Password, safe to pass to a logger's field value.
func (c Credentials) String() string {
	return string(c.Product) + "@" + c.Host
}

func (c Credentials) toStoreRecord() store.Credentials {
	return store.Credentials{
		Product:  string(c.Product),
		Host:     c.Host,
		Port:     c.Port,
		Password: c.Password,
	}
}

func credentialsFromStore(rec store.Credentials) Credentials {
	return Credentials{
		Product:  Product(rec.Product),
		Host:     rec.Host,
		Port:     rec.Port,
		Password: rec.Password,
	}
}

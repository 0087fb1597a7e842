package memory

import (
	"testing"

	"infinicraft-backend/application/ports"
	"infinicraft-backend/infrastructure/persistence/storetest"
)

func TestInMemoryStore(t *testing.T) {
	storetest.RunContract(t, func(t *testing.T) ports.Store {
		return NewInMemoryStore()
	})
}

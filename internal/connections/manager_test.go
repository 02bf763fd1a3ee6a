package connections

import (
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

func TestManager(t *testing.T) {
	t.Run("basic add and remove connection", func(t *testing.T) {
		manager := NewManager(DefaultTimeouts)
		conn := &websocket.Conn{}

		manager.AddConnection(conn)
		if !manager.HasConnection(conn) {
			t.Error("Connection not found after adding")
		}

		manager.RemoveConnection(conn)
		if manager.HasConnection(conn) {
			t.Error("Connection still exists after removal")
		}
	})

	t.Run("concurrent connection operations", func(t *testing.T) {
		manager := NewManager(DefaultTimeouts)
		concurrentOps := 100

		var wg sync.WaitGroup
		wg.Add(concurrentOps)
		for i := 0; i < concurrentOps; i++ {
			go func() {
				defer wg.Done()
				manager.AddConnection(&websocket.Conn{})
			}()
		}
		wg.Wait()

		if count := manager.GetConnectionCount(); count != concurrentOps {
			t.Errorf("Expected %d connections, got %d", concurrentOps, count)
		}
	})

	t.Run("timeouts", func(t *testing.T) {
		manager := NewManager(DefaultTimeouts)
		if manager.GetTimeouts() != DefaultTimeouts {
			t.Errorf("Expected default timeouts, got %+v", manager.GetTimeouts())
		}
	})
}

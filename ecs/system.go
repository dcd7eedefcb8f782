package ecs

// System is a unit of per-frame behaviour. Implementations are usually
// pointers to structs whose Query and Singleton fields are wired by the
// Scheduler at registration; any other fields persist between frames.
type System interface {
	Execute(frame *UpdateFrame)
}

// UpdateFrame is handed to every system of one scheduler pass.
type UpdateFrame struct {
	DeltaTime float64
	Commands  *Commands
	Storage   *Storage
}

func newUpdateFrame(dt float64, storage *Storage) *UpdateFrame {
	return &UpdateFrame{
		DeltaTime: dt,
		Commands:  NewCommands(),
		Storage:   storage,
	}
}

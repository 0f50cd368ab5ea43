package ecs

// Lifecycle events published on the world's event bus.

type EntityCreated struct {
	Entity Entity
}

type EntityDestroyed struct {
	Entity Entity
}

type StepCompleted struct {
	Step uint64
}

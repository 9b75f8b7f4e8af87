package services

// Engine bundles the scheduling services behind a single handle. The worker
// binary wires one up for its background loops; a hosting application takes
// the same handle to reach the request-scoped operations.
type Engine struct {
	WorkingHours *WorkingHoursService
	Slots        *SlotService
	Scheduler    *SchedulerService
	Attendance   *AttendanceService
}

// NewEngine assembles the engine from its services.
func NewEngine(workingHours *WorkingHoursService, slots *SlotService, scheduler *SchedulerService, attendance *AttendanceService) *Engine {
	return &Engine{
		WorkingHours: workingHours,
		Slots:        slots,
		Scheduler:    scheduler,
		Attendance:   attendance,
	}
}

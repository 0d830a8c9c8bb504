package distribution

// burstSchedule is embedded by burst-schedule variants (FixedBurst,
// AccumulateBurst). Default state is {1,0}, i.e. a fresh
// variant behaves as oneShot() until told otherwise.
type burstSchedule struct {
	sched Schedule
}

func newBurstSchedule() burstSchedule {
	return burstSchedule{sched: Schedule{Duration: 1, Period: 0}}
}

// OneShot implements the burst-schedule oneShot(): schedule <- {1,0}.
func (b *burstSchedule) OneShot() {
	b.sched = Schedule{Duration: 1, Period: 0}
}

// Repeat implements the burst-schedule repeat(period): schedule <- {1,period}.
func (b *burstSchedule) Repeat(period uint32) {
	b.sched = Schedule{Duration: 1, Period: period}
}

func (b *burstSchedule) Schedule() Schedule { return b.sched }
func (b *burstSchedule) ScheduleMode() ScheduleMode { return Burst }

// nonBurstSchedule is embedded by non-burst-schedule variants (RandomBurst,
// FixedRate, RandomRate, BitErrorRate, GilbertElliot, Uniform, Gaussian,
// Gamma, Poisson, Step, Custom). Default state is {1,0}, i.e. a fresh
// variant behaves as continuous().
type nonBurstSchedule struct {
	sched Schedule
}

func newNonBurstSchedule() nonBurstSchedule {
	return nonBurstSchedule{sched: Schedule{Duration: 1, Period: 0}}
}

// Continuous implements the non-burst-schedule continuous(): schedule <- {1,0}.
func (n *nonBurstSchedule) Continuous() {
	n.sched = Schedule{Duration: 1, Period: 0}
}

// RepeatPattern implements the non-burst-schedule repeatPattern(d,p):
// schedule <- {d,p}.
func (n *nonBurstSchedule) RepeatPattern(duration, period uint32) {
	n.sched = Schedule{Duration: duration, Period: period}
}

func (n *nonBurstSchedule) Schedule() Schedule { return n.sched }
func (n *nonBurstSchedule) ScheduleMode() ScheduleMode { return NonBurst }

// fixedContinuousSchedule is embedded by ConstantDelay: its schedule is
// immutable {1,0} regardless of any mutation attempt.
type fixedContinuousSchedule struct{}

func (fixedContinuousSchedule) Schedule() Schedule { return Schedule{Duration: 1, Period: 0} }
func (fixedContinuousSchedule) ScheduleMode() ScheduleMode { return FixedContinuous }

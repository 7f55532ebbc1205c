package core

import "periph.io/x/conn/v3/physic"

// Frequencies of the default plan: 8MHz crystal, PLL x9.
const (
	HSEFrequency    = 8 * physic.MegaHertz
	SYSCLKFrequency = 72 * physic.MegaHertz
	APB1Frequency   = 36 * physic.MegaHertz // PCLK1, limited to 36MHz
	APB2Frequency   = 72 * physic.MegaHertz // PCLK2
)

// ClockPlan describes the target clock tree. The sequencer always runs the
// PLL from the HSE and AHB undivided.
type ClockPlan struct {
	HSE     physic.Frequency
	PLLMul  uint32 // 2-16
	APB1Div uint32 // 1, 2, 4, 8 or 16
	APB2Div uint32 // 1, 2, 4, 8 or 16
}

// DefaultClockPlan is the 72MHz configuration for an 8MHz crystal
func DefaultClockPlan() ClockPlan {
	return ClockPlan{
		HSE:     HSEFrequency,
		PLLMul:  9,
		APB1Div: 2,
		APB2Div: 1,
	}
}

// Clocks are the bus frequencies produced by a plan
type Clocks struct {
	SYSCLK physic.Frequency
	HCLK   physic.Frequency
	PCLK1  physic.Frequency
	PCLK2  physic.Frequency
}

// Clocks derives the bus frequencies of the plan
func (p ClockPlan) Clocks() Clocks {
	sys := p.HSE * physic.Frequency(p.PLLMul)
	return Clocks{
		SYSCLK: sys,
		HCLK:   sys,
		PCLK1:  sys / physic.Frequency(p.APB1Div),
		PCLK2:  sys / physic.Frequency(p.APB2Div),
	}
}

// Validate checks the plan against the STM32F103 limits
func (p ClockPlan) Validate() error {
	if p.HSE < 4*physic.MegaHertz || p.HSE > 16*physic.MegaHertz {
		return ErrInvalidPlan
	}
	if p.PLLMul < 2 || p.PLLMul > 16 {
		return ErrInvalidPlan
	}
	if _, ok := ppreField(p.APB1Div); !ok {
		return ErrInvalidPlan
	}
	if _, ok := ppreField(p.APB2Div); !ok {
		return ErrInvalidPlan
	}
	c := p.Clocks()
	if c.SYSCLK > SYSCLKFrequency || c.PCLK1 > APB1Frequency {
		return ErrInvalidPlan
	}
	return nil
}

// FlashLatency returns the wait states needed to run from flash at sysclk
func FlashLatency(sysclk physic.Frequency) uint32 {
	switch {
	case sysclk <= 24*physic.MegaHertz:
		return 0
	case sysclk <= 48*physic.MegaHertz:
		return 1
	default:
		return 2
	}
}

// ppreField encodes an APB divider into the 3-bit PPRE field
func ppreField(div uint32) (uint32, bool) {
	switch div {
	case 1:
		return 0, true
	case 2:
		return 4, true
	case 4:
		return 5, true
	case 8:
		return 6, true
	case 16:
		return 7, true
	}
	return 0, false
}

// ClockStep names a stage of the clock sequence
type ClockStep uint8

const (
	StepHSI ClockStep = iota + 1
	StepHSE
	StepPLLSource
	StepPLLMul
	StepPLLOn
	StepFlashLatency
	StepBusPrescalers
	StepSwitch
	StepSwitchConfirm
)

func (s ClockStep) String() string {
	switch s {
	case StepHSI:
		return "HSI"
	case StepHSE:
		return "HSE"
	case StepPLLSource:
		return "PLL_SOURCE"
	case StepPLLMul:
		return "PLL_MUL"
	case StepPLLOn:
		return "PLL_ON"
	case StepFlashLatency:
		return "FLASH_LATENCY"
	case StepBusPrescalers:
		return "APB_PRESCALERS"
	case StepSwitch:
		return "SWITCH"
	case StepSwitchConfirm:
		return "SWITCH_CONFIRM"
	default:
		return "UNKNOWN"
	}
}

// ConfigureClock moves the system clock from the HSI to the HSE-fed PLL.
//
// The spin-waits have no timeout: running on an oscillator that never
// reported ready is worse than hanging, so a hardware fault stops here. The
// event ring records each step to show where. The only error is an invalid
// plan, reported before any register is touched.
//
// Flash wait states are raised before the switch to the PLL so the core
// never fetches from flash faster than it can deliver.
func ConfigureClock(bus Bus, plan ClockPlan) (Clocks, error) {
	if err := plan.Validate(); err != nil {
		return Clocks{}, err
	}
	clocks := plan.Clocks()
	ppre1, _ := ppreField(plan.APB1Div)
	ppre2, _ := ppreField(plan.APB2Div)

	// 1. HSI on and stable
	clockStep(StepHSI)
	setBits(bus, RCC_CR, rccCR_HSION)
	for !hasBits(bus, RCC_CR, rccCR_HSIRDY) {
	}

	// 2. HSE on and stable
	clockStep(StepHSE)
	setBits(bus, RCC_CR, rccCR_HSEON)
	for !hasBits(bus, RCC_CR, rccCR_HSERDY) {
	}

	// 3. HSE feeds the PLL
	clockStep(StepPLLSource)
	setBits(bus, RCC_CFGR, rccCFGR_PLLSRC)

	// 4. PLLMUL[21:18] = mul - 2
	clockStep(StepPLLMul)
	writeField(bus, RCC_CFGR, rccCFGR_PLLMUL_Pos, 4, plan.PLLMul-2)

	// 5. PLL on and locked
	clockStep(StepPLLOn)
	setBits(bus, RCC_CR, rccCR_PLLON)
	for !hasBits(bus, RCC_CR, rccCR_PLLRDY) {
	}

	// 6. Flash wait states for the target frequency
	clockStep(StepFlashLatency)
	writeField(bus, FLASH_ACR, flashACR_LATENCY_Pos, 3, FlashLatency(clocks.SYSCLK))

	// 7. APB1 (and APB2) prescalers
	clockStep(StepBusPrescalers)
	writeField(bus, RCC_CFGR, rccCFGR_PPRE1_Pos, 3, ppre1)
	writeField(bus, RCC_CFGR, rccCFGR_PPRE2_Pos, 3, ppre2)

	// 8. PLL becomes SYSCLK
	clockStep(StepSwitch)
	writeField(bus, RCC_CFGR, rccCFGR_SW_Pos, 2, rccCFGR_SW_PLL)

	// 9. Wait for the switch status to follow
	clockStep(StepSwitchConfirm)
	for readField(bus, RCC_CFGR, rccCFGR_SWS_Pos, 2) != rccCFGR_SW_PLL {
	}

	RecordEvent(EvtClockDone, 0, Hz(clocks.SYSCLK), Hz(clocks.PCLK1))
	return clocks, nil
}

func clockStep(s ClockStep) {
	RecordEvent(EvtClockStep, uint8(s), 0, 0)
}

// Hz returns f in whole hertz
func Hz(f physic.Frequency) uint32 {
	return uint32(f / physic.Hertz)
}

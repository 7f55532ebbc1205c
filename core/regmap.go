package core

// STM32F103 peripheral memory map (RM0008).
const (
	rccBase   = 0x40021000
	flashBase = 0x40022000
	afioBase  = 0x40010000
	gpioBase  = 0x40010800 // GPIOA; ports are 0x400 apart
	gpioSpan  = 0x400

	usart1Base = 0x40013800
	usart2Base = 0x40004400
	usart3Base = 0x40004800
)

// RCC
const (
	RCC_CR      Reg = rccBase + 0x00
	RCC_CFGR    Reg = rccBase + 0x04
	RCC_APB2ENR Reg = rccBase + 0x18
	RCC_APB1ENR Reg = rccBase + 0x1C
)

// RCC_CR bits
const (
	rccCR_HSION  = 1 << 0
	rccCR_HSIRDY = 1 << 1
	rccCR_HSEON  = 1 << 16
	rccCR_HSERDY = 1 << 17
	rccCR_PLLON  = 1 << 24
	rccCR_PLLRDY = 1 << 25
)

// RCC_CFGR fields
const (
	rccCFGR_SW_Pos     = 0
	rccCFGR_SWS_Pos    = 2
	rccCFGR_PPRE1_Pos  = 8
	rccCFGR_PPRE2_Pos  = 11
	rccCFGR_PLLSRC     = 1 << 16
	rccCFGR_PLLMUL_Pos = 18

	rccCFGR_SW_PLL = 2
)

// RCC enable bits
const (
	rccAPB2ENR_AFIOEN   = 1 << 0
	rccAPB2ENR_IOPAEN   = 1 << 2 // IOPBEN..IOPGEN follow
	rccAPB2ENR_USART1EN = 1 << 14
	rccAPB1ENR_USART2EN = 1 << 17
	rccAPB1ENR_USART3EN = 1 << 18
)

// FLASH
const (
	FLASH_ACR Reg = flashBase + 0x00

	flashACR_LATENCY_Pos = 0
)

// AFIO
const (
	AFIO_MAPR Reg = afioBase + 0x04

	afioMAPR_SWJ_Pos = 24
)

// GPIO register offsets from the port base.
const (
	gpioCRL  = 0x00
	gpioCRH  = 0x04
	gpioIDR  = 0x08
	gpioODR  = 0x0C
	gpioBSRR = 0x10
)

// USART register offsets from the instance base.
const (
	usartSR   = 0x00
	usartDR   = 0x04
	usartBRR  = 0x08
	usartCR1  = 0x0C
	usartGTPR = 0x18
)

// USART bits
const (
	usartSR_RXNE = 1 << 5
	usartSR_TC   = 1 << 6
	usartSR_TXE  = 1 << 7

	usartCR1_RE = 1 << 2
	usartCR1_TE = 1 << 3
	usartCR1_UE = 1 << 13
)

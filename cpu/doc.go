// Package cpu implements the processor and assembler for the pixelvm system.
//
// The processor is a word-oriented machine with a configurable bit width and
// register count, a flat word-addressable RAM, a fixed-capacity call stack,
// a single equality flag set by CMP, and a 24-bit color register feeding a
// pixel-output side channel.
//
// The assembler translates the pixelvm assembly language into an immutable
// Program in two passes: a label scan followed by instruction encoding with
// full operand validation. Labels, equates, and compile-time expression
// evaluation are resolved entirely at assembly time.
package cpu

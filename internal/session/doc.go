// Package session implements the interactive operator loop: menu dispatch,
// prompts, and the attempt / see blocking reason / authorize / retry flow
// around the engine.
//
// All input and output go through injected readers and writers so tests
// can script a whole session. An interrupt cancels only the current
// action and returns to the menu; end-of-input terminates cleanly.
package session

// Package timeline holds the transport clock and the read-only event
// sources queried by the block renderer: loop area, markers, tempo
// automation and position callbacks.
//
// Every type in this package is owned by the render thread. Control threads
// change them through mutations applied at the start of a render pass.
package timeline

/*
Package engine renders audio in blocks that follow the timeline.

An engine owns a transport clock, timeline event sources (loop area,
markers, tempo automation and callbacks) and a graph of processors. Every
call to Render produces one quantum of audio:

	1. pending mutations are applied;
	2. processors that implement BeforeProcessor are notified;
	3. the processor graph is sorted if it was changed;
	4. the quantum is split into blocks at timeline events;
	5. every block is processed by all processors in sorted order, then by
	the metronome;
	6. the output is assembled from the primary unit or from stems;
	7. processors that implement AfterProcessor are notified, pending
	notifications are delivered and the status is published.

Render must be called from a single goroutine, usually the audio callback.
Other goroutines control the engine by pushing mutations:

	e, err := engine.New(engine.WithSampleRate(48000))
	...
	e.Push(e.SetLoop(timeline.LoopArea{From: 0, To: 4 * ppqn.Bar, Enabled: true}), e.Play())

Any error returned by a processor or a panic during the pass halts the
engine. Halted engine renders silence and returns ErrHalted.
*/
package engine

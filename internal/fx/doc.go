// ABOUTME: Audio effects graph package
// ABOUTME: Pull-based node graph with gain, reverb, shelf filter and analyser nodes
// Package fx implements a small audio processing graph in the manner of the
// Web Audio API.
//
// A Context owns every node it creates and renders audio in quanta of
// RenderQuantum frames. Nodes are pulled from the Destination: each node
// sums the output of its inputs, processes the block, and caches the result
// for the current quantum so a node feeding several others renders once.
//
// Audio enters the graph through a MediaElementSource. The media element
// hands each decoded block to the source, which renders it through the
// context and returns what reached the Destination.
//
// Build wires the effects chain used by the player:
//
//	source -> gain -> [convolver] -> low-shelf -> analyser -> destination
//
// and returns a Chain whose Apply method mutates live node parameters from
// an EffectSettings pair and whose Teardown disconnects every node once.
package fx

// Command cuecast renders narrated subtitle videos.
//
// It runs the HTTP job daemon (serve), renders single jobs in-process
// (render, overlay, graph), probes audio lengths, reads job history and
// manages the configuration file.
package main

// Package session owns the per-user burn workflow: collecting one video and
// one subtitle, rendering once both are present, delivering the result, and
// purging the session's files when it concludes.
//
// Manager keeps one Session per chat. Each Session has its own mutex that is
// held only across read-check-transition steps; downloads, ffmpeg, and
// uploads run with it released so other users' sessions (and busy notices for
// this one) keep flowing.
//
// Expected rejections (wrong file type, duplicate input, busy session, failed
// download) come back as Outcome values and never change state. Render and
// delivery failures are returned as errors after the session has moved to
// Failed, the user has been told, and the files are gone.
package session

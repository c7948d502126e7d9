package session

const (
	msgUsage = "Send me a video file (.mp4) and a subtitle file (.srt) to burn subtitles.\n\n" +
		"Files can arrive in either order. Once both are here I render the video and send it back.\n" +
		"/status shows where your current files are."
	msgVideoStored        = "Video uploaded! Now send the subtitle file (.srt)."
	msgSubtitleStored     = "Subtitle uploaded! Now send the video file (.mp4)."
	msgDuplicateVideo     = "Video already uploaded. Now send the subtitle file."
	msgDuplicateSubtitle  = "Subtitle already uploaded. Now send the video file."
	msgInvalidAny         = "Please send a valid .mp4 video file or .srt subtitle file."
	msgInvalidForSubtitle = "Please send a valid .srt subtitle file."
	msgInvalidForVideo    = "Please send a valid .mp4 video file."
	msgBusy               = "Your files are still being processed. Please wait for the result before sending more."
	msgRenderStarted      = "Both files received. Burning subtitles, this can take a while..."
	msgRenderDone         = "Encoding complete! Sending the video..."
	msgRenderDoneLink     = "Encoding complete! Uploading the video..."
	msgLinkReady          = "Your video is ready: %s"
	msgResend             = "Please send it again."
	msgUnknownCommand     = "Unknown command. Send /help for usage."
	msgNoSession          = "No files received yet. " + msgInvalidAny
	msgStatus             = "Session %s: %s"
)

// invalidNotice re-prompts for whatever the session is still waiting for.
func invalidNotice(state State) string {
	switch state {
	case StateAwaitingSubtitle:
		return msgInvalidForSubtitle
	case StateAwaitingVideo:
		return msgInvalidForVideo
	default:
		return msgInvalidAny
	}
}

func storedNotice(kind ArtifactKind) string {
	if kind == ArtifactVideo {
		return msgVideoStored
	}
	return msgSubtitleStored
}

func duplicateNotice(kind ArtifactKind) string {
	if kind == ArtifactVideo {
		return msgDuplicateVideo
	}
	return msgDuplicateSubtitle
}

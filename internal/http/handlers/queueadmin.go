package handlers

import "net/http"

// Operator surface for the admission queue. Exposed on internal routes
// only; the fronting proxy must not forward /v1/admin to the public.

func (a *App) QueueStats(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, a.Queue.Stats())
}

func (a *App) QueuePause(w http.ResponseWriter, r *http.Request) {
	a.Queue.Pause()
	a.json(w, http.StatusOK, a.Queue.Stats())
}

func (a *App) QueueResume(w http.ResponseWriter, r *http.Request) {
	a.Queue.Resume()
	a.json(w, http.StatusOK, a.Queue.Stats())
}

func (a *App) QueueClear(w http.ResponseWriter, r *http.Request) {
	dropped := a.Queue.Clear()
	a.json(w, http.StatusOK, map[string]any{"dropped": dropped, "stats": a.Queue.Stats()})
}

package controller

import (
	"github.com/listenroom/server/pkg/wsrouter"
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()

	mux.Use(c.wsRequestIdWSMw())
	mux.Use(c.loggerWSMw())

	// presence
	wsrouter.Handle(mux, "ALIVE", c.handleAlive)

	// queue
	wsrouter.Handle(mux, "ADD_TRACK", c.handleAddTrack)
	wsrouter.Handle(mux, "REMOVE_TRACK", c.handleRemoveTrack)
	wsrouter.Handle(mux, "REORDER_QUEUE", c.handleReorderQueue)
	wsrouter.Handle(mux, "SHUFFLE_QUEUE", c.handleShuffleQueue)
	wsrouter.Handle(mux, "PLAY_TRACK", c.handlePlayTrack)

	// player
	wsrouter.Handle(mux, "PLAYER_CONTROL", c.handlePlayerControl)
	wsrouter.Handle(mux, "HOST_SYNC", c.handleHostSync)
	wsrouter.Handle(mux, "REQUEST_SYNC", c.handleRequestSync)
	wsrouter.Handle(mux, "HOST_STATE", c.handleHostState)

	// member
	wsrouter.Handle(mux, "KICK_MEMBER", c.handleKickMember)

	return mux
}

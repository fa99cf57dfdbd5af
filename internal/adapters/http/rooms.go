package http

import (
	"net/http"

	"github.com/dkeye/CodeRoom/internal/app/orch"
	"github.com/dkeye/CodeRoom/internal/core"
	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/gin-gonic/gin"
)

type roomSummary struct {
	Name        domain.RoomName `json:"name"`
	ClientCount int             `json:"client_count"`
	LockedBy    *domain.UserID  `json:"locked_by"`
}

type roomDetail struct {
	Name    domain.RoomName   `json:"name"`
	Members []core.MemberDTO  `json:"members"`
	Lock    domain.LockStatus `json:"lock"`
}

func listRooms(o *orch.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		infos := o.Rooms.List()
		out := make([]roomSummary, 0, len(infos))
		for _, info := range infos {
			out = append(out, roomSummary{
				Name:        info.Name,
				ClientCount: info.MemberCount,
				LockedBy:    o.Locks.Status(info.Name).LockedBy,
			})
		}
		c.JSON(http.StatusOK, gin.H{"rooms": out})
	}
}

func getRoom(o *orch.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := domain.RoomName(c.Param("name"))
		rs, ok := o.Rooms.Get(name)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.JSON(http.StatusOK, roomDetail{
			Name:    name,
			Members: rs.MembersSnapshot(),
			Lock:    o.Locks.Status(name),
		})
	}
}

package util

import "github.com/dandyworld/dandy-world-server/model"

// CountAlive returns the number of living players in the room.
func CountAlive(players []*model.RoomPlayer) int {
	var count int
	for _, p := range players {
		if p.IsAlive {
			count++
		}
	}
	return count
}

// PartitionSurvivors splits living players by the reached-elevator flag.
// Dead players appear in neither slice.
func PartitionSurvivors(players []*model.RoomPlayer) (survivors, failed []*model.RoomPlayer) {
	for _, p := range players {
		if !p.IsAlive {
			continue
		}
		if p.ReachedElevator {
			survivors = append(survivors, p)
		} else {
			failed = append(failed, p)
		}
	}
	return survivors, failed
}

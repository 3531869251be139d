package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/RobertWHurst/navaros"
	"github.com/RobertWHurst/wrs"
)

const keyTimeState = "timeState"

func main() {
	clock := wrs.NewController("ClockController", "Clock").
		Page("start", func(ctx *wrs.Context) wrs.Outcome {
			fmt.Println("Starting time")

			timeState := &TimeState{sendTime: true}
			ctx.SetOnConnection(keyTimeState, timeState)

			connection := ctx.Connection
			go func() {
				for timeState.ShouldSendTime() {
					select {
					case <-connection.Done():
						return
					case <-time.After(time.Second):
					}

					fmt.Println("Sending time")
					if err := connection.Ok("time", time.Now().Unix()); err != nil {
						fmt.Println("Error sending time:", err)
						return
					}
				}
			}()

			return ctx.Ok("started", true)
		}).
		Page("stop", func(ctx *wrs.Context) wrs.Outcome {
			fmt.Println("Stopping time")
			timeState, ok := ctx.GetFromConnection(keyTimeState).(*TimeState)
			if !ok {
				return ctx.Bad(wrs.CodeBadRequest, "time is not running")
			}
			timeState.Stop()
			return ctx.Ok("stopped", true)
		})

	server := wrs.NewServer()
	server.Module(wrs.NewModule("TimeModule").Controller(clock))
	if err := server.Start(context.Background()); err != nil {
		fmt.Println("Error starting services:", err)
		return
	}

	router := navaros.NewRouter()
	router.Use(server.Middleware())

	fmt.Println("Starting server on port 8167")
	err := http.ListenAndServe(":8167", router)
	if err != nil {
		fmt.Println("Error starting server:", err)
	}
}

type TimeState struct {
	mx       sync.Mutex
	sendTime bool
}

func (ts *TimeState) ShouldSendTime() bool {
	ts.mx.Lock()
	defer ts.mx.Unlock()
	return ts.sendTime
}

func (ts *TimeState) Stop() {
	ts.mx.Lock()
	defer ts.mx.Unlock()
	ts.sendTime = false
}

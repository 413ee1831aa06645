package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/habbits/internal/service"
)

const dateFormat = "2006-01-02"

type habitKeyPayload struct {
	Category string `json:"category" binding:"required"`
	Name     string `json:"name" binding:"required"`
}

type togglePayload struct {
	Category string `json:"category" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Checked  bool   `json:"checked"`
}

type energyPayload struct {
	Level string `json:"level" binding:"required"`
}

type submitPayload struct {
	Date string `json:"date"`
}

type upsertPayload struct {
	Name      string `json:"name" binding:"required"`
	Completed bool   `json:"completed"`
	Date      string `json:"date"`
}

// GetHabits 返回当前用户的状态快照供前端渲染
func (a *API) GetHabits(c *gin.Context) {
	tag := a.currentUser(c)
	profile := a.users.Lookup(tag)
	state := a.states.Get(tag)

	c.JSON(http.StatusOK, gin.H{
		"user":           profile.Tag,
		"energy_enabled": profile.EnergyEnabled,
		"energy_levels":  service.EnergyLevels,
		"energy":         state.Energy(),
		"categories":     state.Snapshot(),
	})
}

// ResetHabits 把当前用户的状态重新归零
func (a *API) ResetHabits(c *gin.Context) {
	tag := a.currentUser(c)
	a.states.Reset(tag)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ToggleHabit 按复选框实际状态设置开关习惯
func (a *API) ToggleHabit(c *gin.Context) {
	var payload togglePayload
	if !bindJSON(c, &payload, "category and name are required") {
		return
	}

	state := a.states.Get(a.currentUser(c))
	key := service.HabitKey{Category: payload.Category, Name: payload.Name}
	if err := state.Toggle(key, payload.Checked); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// IncrementHabit 计数习惯 +1
func (a *API) IncrementHabit(c *gin.Context) {
	a.adjustHabit(c, func(state *service.HabitState, key service.HabitKey) error {
		return state.Increment(key)
	})
}

// DecrementHabit 计数习惯 -1，0 以下不再减
func (a *API) DecrementHabit(c *gin.Context) {
	a.adjustHabit(c, func(state *service.HabitState, key service.HabitKey) error {
		return state.Decrement(key)
	})
}

func (a *API) adjustHabit(c *gin.Context, op func(*service.HabitState, service.HabitKey) error) {
	var payload habitKeyPayload
	if !bindJSON(c, &payload, "category and name are required") {
		return
	}

	state := a.states.Get(a.currentUser(c))
	key := service.HabitKey{Category: payload.Category, Name: payload.Name}
	if err := op(state, key); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	value, _ := state.Value(key)
	c.JSON(http.StatusOK, gin.H{"count": value.Count})
}

// SelectEnergy 覆盖当前的能量选择
func (a *API) SelectEnergy(c *gin.Context) {
	var payload energyPayload
	if !bindJSON(c, &payload, "level is required") {
		return
	}

	tag := a.currentUser(c)
	profile := a.users.Lookup(tag)
	if !profile.EnergyEnabled {
		respondError(c, http.StatusBadRequest, "energy rating is not enabled for this user")
		return
	}

	if err := a.states.Get(tag).SelectEnergy(payload.Level); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ClearEnergy 取消能量选择
func (a *API) ClearEnergy(c *gin.Context) {
	a.states.Get(a.currentUser(c)).ClearEnergy()
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// SubmitHabits 把当前状态展开并提交到远端。
// 日期缺省取服务器当天；任意一条写入失败则整体报错。
func (a *API) SubmitHabits(c *gin.Context) {
	var payload submitPayload
	if c.Request.ContentLength > 0 {
		if !bindJSON(c, &payload, "invalid submit payload") {
			return
		}
	}

	day := payload.Date
	if day == "" {
		day = time.Now().Format(dateFormat)
	} else if _, err := time.Parse(dateFormat, day); err != nil {
		respondError(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	result, err := a.submissions.Submit(c.Request.Context(), a.currentUser(c), day)
	if err != nil {
		respondError(c, http.StatusBadGateway, err.Error())
		return
	}

	c.JSON(http.StatusOK, result)
}

// UpsertHabitRecord 提供"每个条目每天至多一条"的写入入口
func (a *API) UpsertHabitRecord(c *gin.Context) {
	var payload upsertPayload
	if !bindJSON(c, &payload, "name is required") {
		return
	}

	day := payload.Date
	if day == "" {
		day = time.Now().Format(dateFormat)
	} else if _, err := time.Parse(dateFormat, day); err != nil {
		respondError(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	profile := a.users.Lookup(a.currentUser(c))
	rec := service.HabitRecord{Name: payload.Name, Completed: payload.Completed, Date: day}
	if err := a.records.Upsert(c.Request.Context(), profile.HabitDatabaseID, rec); err != nil {
		respondError(c, http.StatusBadGateway, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetSubmissions 返回当前用户最近的提交流水
func (a *API) GetSubmissions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	entries, err := a.submissions.History(a.currentUser(c), limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list submissions")
		return
	}

	c.JSON(http.StatusOK, gin.H{"submissions": entries})
}

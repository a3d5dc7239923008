package xrl

import (
	"context"
	"encoding/json"
)

// ModifySelection tells a find command what to do with the match.
type ModifySelection string

const (
	ModifySelectionNone               ModifySelection = "none"
	ModifySelectionSet                ModifySelection = "set"
	ModifySelectionAdd                ModifySelection = "add"
	ModifySelectionAddRemovingCurrent ModifySelection = "add_removing_current"
)

type lineParams struct {
	Line uint64 `json:"line"`
}

type charsParams struct {
	Chars string `json:"chars"`
}

type findParams struct {
	Chars         string `json:"chars"`
	CaseSensitive bool   `json:"case_sensitive"`
	Regex         bool   `json:"regex"`
	WholeWords    bool   `json:"whole_words"`
}

type findOtherParams struct {
	WrapAround      bool            `json:"wrap_around"`
	AllowSame       bool            `json:"allow_same"`
	ModifySelection ModifySelection `json:"modify_selection"`
}

type visibleParams struct {
	Visible bool `json:"visible"`
}

type gestureParams struct {
	Line uint64 `json:"line"`
	Col  uint64 `json:"col"`
	Ty   string `json:"ty"`
}

// Scroll tells the core which lines are visible.
//
//	{"method":"edit","params":{"method":"scroll","params":[21,80],
//	"view_id":"view-id-1"}}
func (self *Client) Scroll(view ViewId, firstLine uint64, lastLine uint64) error {
	return self.EditNotify(view, "scroll", []uint64{firstLine, lastLine})
}

func (self *Client) GotoLine(view ViewId, line uint64) error {
	return self.EditNotify(view, "goto_line", lineParams{Line: line})
}

func (self *Client) Copy(view ViewId) *Call {
	return self.EditRequest(view, "copy", nil)
}

func (self *Client) Paste(view ViewId, buffer string) error {
	return self.EditNotify(view, "paste", charsParams{Chars: buffer})
}

func (self *Client) Cut(view ViewId) *Call {
	return self.EditRequest(view, "cut", nil)
}

func (self *Client) Undo(view ViewId) error {
	return self.EditNotify(view, "undo", nil)
}

func (self *Client) Redo(view ViewId) error {
	return self.EditNotify(view, "redo", nil)
}

func (self *Client) Find(view ViewId, searchTerm string, caseSensitive bool, regex bool, wholeWords bool) error {
	return self.EditNotify(view, "find", findParams{
		Chars:         searchTerm,
		CaseSensitive: caseSensitive,
		Regex:         regex,
		WholeWords:    wholeWords,
	})
}

func (self *Client) findOther(view ViewId, command string, wrapAround bool, allowSame bool, modifySelection ModifySelection) error {
	return self.EditNotify(view, command, findOtherParams{
		WrapAround:      wrapAround,
		AllowSame:       allowSame,
		ModifySelection: modifySelection,
	})
}

func (self *Client) FindNext(view ViewId, wrapAround bool, allowSame bool, modifySelection ModifySelection) error {
	return self.findOther(view, "find_next", wrapAround, allowSame, modifySelection)
}

func (self *Client) FindPrev(view ViewId, wrapAround bool, allowSame bool, modifySelection ModifySelection) error {
	return self.findOther(view, "find_previous", wrapAround, allowSame, modifySelection)
}

func (self *Client) FindAll(view ViewId) error {
	return self.EditNotify(view, "find_all", nil)
}

func (self *Client) HighlightFind(view ViewId, visible bool) error {
	return self.EditNotify(view, "highlight_find", visibleParams{Visible: visible})
}

func (self *Client) Left(view ViewId) error {
	return self.EditNotify(view, "move_left", nil)
}

func (self *Client) LeftSel(view ViewId) error {
	return self.EditNotify(view, "move_left_and_modify_selection", nil)
}

func (self *Client) Right(view ViewId) error {
	return self.EditNotify(view, "move_right", nil)
}

func (self *Client) RightSel(view ViewId) error {
	return self.EditNotify(view, "move_right_and_modify_selection", nil)
}

func (self *Client) Up(view ViewId) error {
	return self.EditNotify(view, "move_up", nil)
}

func (self *Client) UpSel(view ViewId) error {
	return self.EditNotify(view, "move_up_and_modify_selection", nil)
}

func (self *Client) Down(view ViewId) error {
	return self.EditNotify(view, "move_down", nil)
}

func (self *Client) DownSel(view ViewId) error {
	return self.EditNotify(view, "move_down_and_modify_selection", nil)
}

// Backspace deletes backward, the way the backspace key does.
func (self *Client) Backspace(view ViewId) error {
	return self.Del(view)
}

// Delete deletes forward.
func (self *Client) Delete(view ViewId) error {
	return self.EditNotify(view, "delete_forward", nil)
}

// Del deletes backward.
func (self *Client) Del(view ViewId) error {
	return self.EditNotify(view, "delete_backward", nil)
}

func (self *Client) PageUp(view ViewId) error {
	return self.EditNotify(view, "scroll_page_up", nil)
}

func (self *Client) PageUpSel(view ViewId) error {
	return self.EditNotify(view, "page_up_and_modify_selection", nil)
}

func (self *Client) PageDown(view ViewId) error {
	return self.EditNotify(view, "scroll_page_down", nil)
}

func (self *Client) PageDownSel(view ViewId) error {
	return self.EditNotify(view, "page_down_and_modify_selection", nil)
}

func (self *Client) LineStart(view ViewId) error {
	return self.EditNotify(view, "move_to_left_end_of_line", nil)
}

func (self *Client) LineStartSel(view ViewId) error {
	return self.EditNotify(view, "move_to_left_end_of_line_and_modify_selection", nil)
}

func (self *Client) LineEnd(view ViewId) error {
	return self.EditNotify(view, "move_to_right_end_of_line", nil)
}

func (self *Client) LineEndSel(view ViewId) error {
	return self.EditNotify(view, "move_to_right_end_of_line_and_modify_selection", nil)
}

func (self *Client) SelectAll(view ViewId) error {
	return self.EditNotify(view, "select_all", nil)
}

func (self *Client) CollapseSelections(view ViewId) error {
	return self.EditNotify(view, "collapse_selections", nil)
}

func (self *Client) InsertNewline(view ViewId) error {
	return self.EditNotify(view, "insert_newline", nil)
}

func (self *Client) InsertTab(view ViewId) error {
	return self.EditNotify(view, "insert_tab", nil)
}

func (self *Client) DebugRewrap(view ViewId) error {
	return self.EditNotify(view, "debug_rewrap", nil)
}

func (self *Client) DebugTestFgSpans(view ViewId) error {
	return self.EditNotify(view, "debug_test_fg_spans", nil)
}

// Char inserts one typed character.
func (self *Client) Char(view ViewId, ch rune) error {
	return self.EditNotify(view, "insert", charsParams{Chars: string(ch)})
}

// Insert inserts a string at the cursor.
func (self *Client) Insert(view ViewId, chars string) error {
	return self.EditNotify(view, "insert", charsParams{Chars: chars})
}

// Click sends the raw click command. The trailing 0 and 1 are the modifier
// and click count the core expects; modifiers and multi clicks are not
// handled here, so the literals go out as-is.
func (self *Client) Click(view ViewId, line uint64, column uint64) error {
	return self.EditNotify(view, "click", []uint64{line, column, 0, 1})
}

func (self *Client) gesture(view ViewId, line uint64, column uint64, ty string) error {
	return self.EditNotify(view, "gesture", gestureParams{
		Line: line,
		Col:  column,
		Ty:   ty,
	})
}

func (self *Client) ClickPointSelect(view ViewId, line uint64, column uint64) error {
	return self.gesture(view, line, column, "point_select")
}

func (self *Client) ClickToggleSel(view ViewId, line uint64, column uint64) error {
	return self.gesture(view, line, column, "toggle_sel")
}

func (self *Client) ClickRangeSelect(view ViewId, line uint64, column uint64) error {
	return self.gesture(view, line, column, "range_select")
}

func (self *Client) ClickLineSelect(view ViewId, line uint64, column uint64) error {
	return self.gesture(view, line, column, "range_select")
}

func (self *Client) ClickWordSelect(view ViewId, line uint64, column uint64) error {
	return self.gesture(view, line, column, "word_select")
}

func (self *Client) ClickMultiLineSelect(view ViewId, line uint64, column uint64) error {
	return self.gesture(view, line, column, "multi_line_select")
}

func (self *Client) ClickMultiWordSelect(view ViewId, line uint64, column uint64) error {
	return self.gesture(view, line, column, "multi_word_select")
}

// Drag extends the selection while the mouse is held. The trailing 0 is
// the modifier literal, same as Click.
func (self *Client) Drag(view ViewId, line uint64, column uint64) error {
	return self.EditNotify(view, "drag", []uint64{line, column, 0})
}

type newViewParams struct {
	FilePath string `json:"file_path,omitempty"`
}

type viewIdParams struct {
	ViewId ViewId `json:"view_id"`
}

type saveParams struct {
	ViewId   ViewId `json:"view_id"`
	FilePath string `json:"file_path"`
}

type themeParams struct {
	ThemeName string `json:"theme_name"`
}

type clientStartedParams struct {
	ConfigDir      string `json:"config_dir,omitempty"`
	ClientExtraDir string `json:"client_extra_dir,omitempty"`
}

type pluginParams struct {
	ViewId     ViewId `json:"view_id"`
	PluginName string `json:"plugin_name"`
}

type pluginNotification struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

type pluginRpcParams struct {
	ViewId       ViewId             `json:"view_id"`
	Receiver     string             `json:"receiver"`
	Notification pluginNotification `json:"notification"`
}

// NewView asks the core to open a view, on filePath when non-empty,
// otherwise on an empty buffer. The returned call resolves to the new
// view id.
//
//	{"id":1,"method":"new_view","params":{"file_path":"foo/test.txt"}}
func (self *Client) NewView(filePath string) *Call {
	return self.Request("new_view", newViewParams{FilePath: filePath})
}

// NewViewSync is NewView resolved to a ViewId.
func (self *Client) NewViewSync(ctx context.Context, filePath string) (ViewId, error) {
	return AwaitInto[ViewId](ctx, self.NewView(filePath))
}

func (self *Client) CloseView(view ViewId) error {
	return self.Notify("close_view", viewIdParams{ViewId: view})
}

func (self *Client) Save(view ViewId, filePath string) error {
	return self.Notify("save", saveParams{ViewId: view, FilePath: filePath})
}

func (self *Client) SetTheme(theme string) error {
	return self.Notify("set_theme", themeParams{ThemeName: theme})
}

// ClientStarted must be the first message on a fresh connection. Both
// directories are optional and omitted when empty.
func (self *Client) ClientStarted(configDir string, clientExtraDir string) error {
	return self.Notify("client_started", clientStartedParams{
		ConfigDir:      configDir,
		ClientExtraDir: clientExtraDir,
	})
}

func (self *Client) StartPlugin(view ViewId, name string) error {
	return self.Notify("start", pluginParams{ViewId: view, PluginName: name})
}

func (self *Client) StopPlugin(view ViewId, name string) error {
	return self.Notify("stop", pluginParams{ViewId: view, PluginName: name})
}

// NotifyPlugin forwards a notification to a running plugin.
func (self *Client) NotifyPlugin(view ViewId, plugin string, method string, params json.RawMessage) error {
	return self.Notify("plugin_rpc", pluginRpcParams{
		ViewId:   view,
		Receiver: plugin,
		Notification: pluginNotification{
			Method: method,
			Params: params,
		},
	})
}

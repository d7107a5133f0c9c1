package ir

import "reflect"

// Kind-specific node payloads. Field names follow the operand names used by
// the block producer.

// ConstantData is a literal. Value holds a string, float64, int64 or bool.
type ConstantData struct {
	Value any
}

// ArgumentData reads a procedure argument by position.
type ArgumentData struct {
	Index int
}

// BinaryData is the shared payload of two-operand operators.
type BinaryData struct {
	Left  *Node
	Right *Node
}

// UnaryData is the shared payload of one-operand operators.
type UnaryData struct {
	Value *Node
}

// LetterOfData reads one character out of a string.
type LetterOfData struct {
	Letter *Node
	String *Node
}

// StringContainsData is the case-insensitive substring test.
type StringContainsData struct {
	String   *Node
	Contains *Node
}

// RandomData picks a random number in an inclusive range.
type RandomData struct {
	Low  *Node
	High *Node
}

// CompatData routes a block through the uncompiled-primitive layer.
type CompatData struct {
	Opcode  string
	BlockID string
	Inputs  map[string]*Node
	Fields  map[string]string
}

// AddonCallData invokes an externally installed addon block.
type AddonCallData struct {
	Code      string
	BlockID   string
	Arguments map[string]*Node
}

// ExtensionData is the generic payload carried by nodes whose kind belongs
// to a registered extension. The transformer interprets it.
type ExtensionData struct {
	Inputs map[string]*Node
	Fields map[string]any
}

// PolygonPoint is one vertex of a math.polygon input.
type PolygonPoint struct {
	X *Node
	Y *Node
}

// PolygonData is the math.polygon payload.
type PolygonData struct {
	Points []PolygonPoint
}

// InlineStackData wraps a statement list used in an expression slot.
type InlineStackData struct {
	Do []*Node
}

// KeyPressedData tests a key through the keyboard io device.
type KeyPressedData struct {
	Key *Node
}

// Variable and list payloads.

type VarData struct {
	Variable VariableRef
}

type VarSetData struct {
	Variable VariableRef
	Value    *Node
}

type ListData struct {
	List ListRef
}

type ListItemData struct {
	List ListRef
	Item *Node
}

type ListIndexData struct {
	List  ListRef
	Index *Node
}

type ListInsertData struct {
	List  ListRef
	Index *Node
	Item  *Node
}

type ListReplaceData struct {
	List  ListRef
	Index *Node
	Item  *Node
}

type ListForEachData struct {
	List     ListRef
	Variable VariableRef
	Do       []*Node
}

// Sensing payloads.

type OfData struct {
	Property string
	Object   *Node
}

type SetOfData struct {
	Property string
	Object   *Node
	Value    *Node
}

type TouchingData struct {
	Object *Node
}

type TouchingColorData struct {
	Color *Node
}

type ColorTouchingColorData struct {
	Target *Node
	Mask   *Node
}

type DistanceData struct {
	Target *Node
}

// Control payloads.

type IfData struct {
	Condition *Node
	Then      []*Node
	Else      []*Node
}

type RepeatData struct {
	Times *Node
	Do    []*Node
}

type WhileData struct {
	Condition *Node
	Do        []*Node
}

type ForData struct {
	Variable VariableRef
	Count    *Node
	Do       []*Node
}

type WaitData struct {
	Seconds *Node
}

type WaitUntilData struct {
	Condition *Node
}

type WaitOrUntilData struct {
	Seconds   *Node
	Condition *Node
}

type StackData struct {
	Do []*Node
}

// SwitchData selects among case statements on a string discriminant.
type SwitchData struct {
	Test  *Node
	Cases []*Node
}

// CaseData is one arm of a control.switch. RunsNext leaves the arm open so
// execution falls through into the next one.
type CaseData struct {
	Condition *Node
	Do        []*Node
	RunsNext  bool
}

// NewScriptData starts the substack rooted at BlockID as a new thread.
type NewScriptData struct {
	BlockID string
}

type CreateCloneData struct {
	Target *Node
}

type RunAsSpriteData struct {
	Target *Node
	Do     []*Node
}

// BroadcastData names a broadcast message.
type BroadcastData struct {
	Broadcast *Node
}

// ProcedureCallData calls a custom-block procedure. Variant keys the
// procedures table; Code is the user-visible proccode.
type ProcedureCallData struct {
	Code      string
	Variant   string
	Arguments []*Node
}

type ReturnData struct {
	Value *Node
}

// Looks payloads.

type EffectData struct {
	Effect string
	Value  *Node
}

type SizeData struct {
	Size *Node
}

type LayersData struct {
	Layers *Node
}

type CostumeData struct {
	Costume *Node
}

// Motion payloads.

type ChangeXData struct{ DX *Node }
type ChangeYData struct{ DY *Node }
type SetXData struct{ X *Node }
type SetYData struct{ Y *Node }
type SetXYData struct {
	X *Node
	Y *Node
}
type SetDirectionData struct{ Direction *Node }
type SetRotationStyleData struct{ Style string }
type StepData struct{ Steps *Node }

// Pen payloads.

type ColorData struct{ Color *Node }
type PenParamData struct {
	Param *Node
	Value *Node
}
type PenSizeData struct{ Size *Node }
type PenHueData struct{ Hue *Node }
type PenShadeData struct{ Shade *Node }

// VisualReportData reports a value against the script's top block.
type VisualReportData struct {
	Input *Node
}

// payloadTypes maps a node kind to its payload shape for the wire codec.
// Kinds missing from the table either carry no payload or belong to an
// extension (which decodes as ExtensionData).
var payloadTypes = map[string]reflect.Type{
	KindConstant:         reflect.TypeOf(ConstantData{}),
	KindArgsBoolean:      reflect.TypeOf(ArgumentData{}),
	KindArgsStringNumber: reflect.TypeOf(ArgumentData{}),
	KindCompat:           reflect.TypeOf(CompatData{}),
	KindAddonsCall:       reflect.TypeOf(AddonCallData{}),

	KindMathPolygon:        reflect.TypeOf(PolygonData{}),
	KindControlInlineStack: reflect.TypeOf(InlineStackData{}),
	KindKeyboardPressed:    reflect.TypeOf(KeyPressedData{}),
	KindBroadcastFunction:  reflect.TypeOf(BroadcastData{}),

	KindOpAbs:      reflect.TypeOf(UnaryData{}),
	KindOpAcos:     reflect.TypeOf(UnaryData{}),
	KindOpAdd:      reflect.TypeOf(BinaryData{}),
	KindOpAdvLog:   reflect.TypeOf(BinaryData{}),
	KindOpAnd:      reflect.TypeOf(BinaryData{}),
	KindOpAsin:     reflect.TypeOf(UnaryData{}),
	KindOpAtan:     reflect.TypeOf(UnaryData{}),
	KindOpCeiling:  reflect.TypeOf(UnaryData{}),
	KindOpContains: reflect.TypeOf(StringContainsData{}),
	KindOpCos:      reflect.TypeOf(UnaryData{}),
	KindOpDivide:   reflect.TypeOf(BinaryData{}),
	KindOpEPow:     reflect.TypeOf(UnaryData{}),
	KindOpEquals:   reflect.TypeOf(BinaryData{}),
	KindOpFloor:    reflect.TypeOf(UnaryData{}),
	KindOpGreater:  reflect.TypeOf(BinaryData{}),
	KindOpJoin:     reflect.TypeOf(BinaryData{}),
	KindOpLength:   reflect.TypeOf(UnaryData{}),
	KindOpLess:     reflect.TypeOf(BinaryData{}),
	KindOpLetterOf: reflect.TypeOf(LetterOfData{}),
	KindOpLn:       reflect.TypeOf(UnaryData{}),
	KindOpLog:      reflect.TypeOf(UnaryData{}),
	KindOpMod:      reflect.TypeOf(BinaryData{}),
	KindOpMultiply: reflect.TypeOf(BinaryData{}),
	KindOpNot:      reflect.TypeOf(UnaryData{}),
	KindOpOr:       reflect.TypeOf(BinaryData{}),
	KindOpRandom:   reflect.TypeOf(RandomData{}),
	KindOpRound:    reflect.TypeOf(UnaryData{}),
	KindOpSin:      reflect.TypeOf(UnaryData{}),
	KindOpSqrt:     reflect.TypeOf(UnaryData{}),
	KindOpSubtract: reflect.TypeOf(BinaryData{}),
	KindOpTan:      reflect.TypeOf(UnaryData{}),
	KindOpTenPow:   reflect.TypeOf(UnaryData{}),

	KindListContains: reflect.TypeOf(ListItemData{}),
	KindListContents: reflect.TypeOf(ListData{}),
	KindListGet:      reflect.TypeOf(ListIndexData{}),
	KindListIndexOf:  reflect.TypeOf(ListItemData{}),
	KindListLength:   reflect.TypeOf(ListData{}),

	KindSensingColorTouchingColor: reflect.TypeOf(ColorTouchingColorData{}),
	KindSensingDistance:           reflect.TypeOf(DistanceData{}),
	KindSensingOf:                 reflect.TypeOf(OfData{}),
	KindSensingSetOf:              reflect.TypeOf(SetOfData{}),
	KindSensingTouching:           reflect.TypeOf(TouchingData{}),
	KindSensingTouchingColor:      reflect.TypeOf(TouchingColorData{}),

	KindVarGet:  reflect.TypeOf(VarData{}),
	KindVarHide: reflect.TypeOf(VarData{}),
	KindVarSet:  reflect.TypeOf(VarSetData{}),
	KindVarShow: reflect.TypeOf(VarData{}),

	KindProceduresCall:   reflect.TypeOf(ProcedureCallData{}),
	KindProceduresReturn: reflect.TypeOf(ReturnData{}),

	KindControlAllAtOnce:   reflect.TypeOf(StackData{}),
	KindControlCase:        reflect.TypeOf(CaseData{}),
	KindControlCreateClone: reflect.TypeOf(CreateCloneData{}),
	KindControlFor:         reflect.TypeOf(ForData{}),
	KindControlIf:          reflect.TypeOf(IfData{}),
	KindControlNewScript:   reflect.TypeOf(NewScriptData{}),
	KindControlRepeat:      reflect.TypeOf(RepeatData{}),
	KindControlRunAsSprite: reflect.TypeOf(RunAsSpriteData{}),
	KindControlSwitch:      reflect.TypeOf(SwitchData{}),
	KindControlWait:        reflect.TypeOf(WaitData{}),
	KindControlWaitOrUntil: reflect.TypeOf(WaitOrUntilData{}),
	KindControlWaitUntil:   reflect.TypeOf(WaitUntilData{}),
	KindControlWhile:       reflect.TypeOf(WhileData{}),

	KindEventBroadcast:        reflect.TypeOf(BroadcastData{}),
	KindEventBroadcastAndWait: reflect.TypeOf(BroadcastData{}),

	KindListAdd:       reflect.TypeOf(ListItemData{}),
	KindListDelete:    reflect.TypeOf(ListIndexData{}),
	KindListDeleteAll: reflect.TypeOf(ListData{}),
	KindListForEach:   reflect.TypeOf(ListForEachData{}),
	KindListHide:      reflect.TypeOf(ListData{}),
	KindListInsert:    reflect.TypeOf(ListInsertData{}),
	KindListReplace:   reflect.TypeOf(ListReplaceData{}),
	KindListShow:      reflect.TypeOf(ListData{}),

	KindLooksChangeEffect:   reflect.TypeOf(EffectData{}),
	KindLooksChangeSize:     reflect.TypeOf(SizeData{}),
	KindLooksBackwardLayers: reflect.TypeOf(LayersData{}),
	KindLooksForwardLayers:  reflect.TypeOf(LayersData{}),
	KindLooksSetEffect:      reflect.TypeOf(EffectData{}),
	KindLooksSetSize:        reflect.TypeOf(SizeData{}),
	KindLooksSwitchBackdrop: reflect.TypeOf(CostumeData{}),
	KindLooksSwitchCostume:  reflect.TypeOf(CostumeData{}),

	KindMotionChangeX:          reflect.TypeOf(ChangeXData{}),
	KindMotionChangeY:          reflect.TypeOf(ChangeYData{}),
	KindMotionSetDirection:     reflect.TypeOf(SetDirectionData{}),
	KindMotionSetRotationStyle: reflect.TypeOf(SetRotationStyleData{}),
	KindMotionSetX:             reflect.TypeOf(SetXData{}),
	KindMotionSetY:             reflect.TypeOf(SetYData{}),
	KindMotionSetXY:            reflect.TypeOf(SetXYData{}),
	KindMotionStep:             reflect.TypeOf(StepData{}),

	KindPenSetColor:          reflect.TypeOf(ColorData{}),
	KindPenChangeParam:       reflect.TypeOf(PenParamData{}),
	KindPenSetParam:          reflect.TypeOf(PenParamData{}),
	KindPenChangeSize:        reflect.TypeOf(PenSizeData{}),
	KindPenSetSize:           reflect.TypeOf(PenSizeData{}),
	KindPenLegacyChangeHue:   reflect.TypeOf(PenHueData{}),
	KindPenLegacySetHue:      reflect.TypeOf(PenHueData{}),
	KindPenLegacyChangeShade: reflect.TypeOf(PenShadeData{}),
	KindPenLegacySetShade:    reflect.TypeOf(PenShadeData{}),

	KindVisualReport: reflect.TypeOf(VisualReportData{}),
}

// noPayloadKinds lists kinds whose Data is always nil.
var noPayloadKinds = map[string]bool{
	KindNoop:                 true,
	KindTimerGet:             true,
	KindTimerReset:           true,
	KindTwLastKeyPressed:     true,
	KindTwDebugger:           true,
	KindLooksSize:            true,
	KindLooksBackdropName:    true,
	KindLooksBackdropNumber:  true,
	KindLooksCostumeName:     true,
	KindLooksCostumeNumber:   true,
	KindLooksClearEffects:    true,
	KindLooksGoToBack:        true,
	KindLooksGoToFront:       true,
	KindLooksHide:            true,
	KindLooksNextBackdrop:    true,
	KindLooksNextCostume:     true,
	KindLooksShow:            true,
	KindMotionDirection:      true,
	KindMotionX:              true,
	KindMotionY:              true,
	KindMotionIfOnEdgeBounce: true,
	KindMouseDown:            true,
	KindMouseX:               true,
	KindMouseY:               true,
	KindSensingAnswer:        true,
	KindSensingDate:          true,
	KindSensingDayOfWeek:     true,
	KindSensingDaysSince2000: true,
	KindSensingHour:          true,
	KindSensingMinute:        true,
	KindSensingMonth:         true,
	KindSensingSecond:        true,
	KindSensingUsername:      true,
	KindSensingYear:          true,
	KindControlDeleteClone:   true,
	KindControlExitCase:      true,
	KindControlStopAll:       true,
	KindControlStopOthers:    true,
	KindControlStopScript:    true,
	KindPenClear:             true,
	KindPenDown:              true,
	KindPenUp:                true,
	KindPenStamp:             true,
}

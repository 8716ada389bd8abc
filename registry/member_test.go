package registry

import (
	"testing"
	"unsafe"

	"github.com/google/go-cmp/cmp"
	"github.com/oliverbestmann/neat/erased"
	"github.com/oliverbestmann/neat/internal/assert"
	"github.com/oliverbestmann/neat/typeid"
	"github.com/stretchr/testify/require"
)

func recoverViolation(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = r.(*assert.Violation)
		}
	}()

	fn()
	return nil
}

type Player struct {
	Name     string
	Position Point
	Health   float32
}

func (p *Player) Rename(name string) string {
	previous := p.Name
	p.Name = name
	return previous
}

func (p *Player) Damage(amount float32, times int, critical bool) {
	for range times {
		p.Health -= amount
	}

	if critical {
		p.Health = 0
	}
}

func (p *Player) Tags(prefix string, tags ...string) []string {
	var result []string
	for _, tag := range tags {
		result = append(result, prefix+tag)
	}

	return result
}

func TestFieldAccessors(t *testing.T) {
	field := NewField("name", Public, func(p *Player) *string { return &p.Name })

	require.Equal(t, typeid.Of[Player](), field.ObjectType)
	require.Equal(t, typeid.Of[string](), field.Type)
	require.Zero(t, field.Offset)

	player := Player{Name: "alice"}
	object := erased.PtrOf(&player)

	value := field.GetValue(object)
	require.Equal(t, "alice", *erased.Value[string](&value))

	newName := erased.New("bob")
	field.SetValue(object, &newName)
	require.Equal(t, "bob", player.Name)

	address := field.GetAddress(object)
	require.Same(t, &player.Name, erased.Cast[string](address))
}

func TestFieldRoundTrip(t *testing.T) {
	health := NewField("health", Public, func(p *Player) *float32 { return &p.Health })
	position := NewField("position", Public, func(p *Player) *Point { return &p.Position })

	var player Player
	object := erased.PtrOf(&player)

	for _, value := range []float32{0, 1, -3.5, 1e9} {
		v := erased.New(value)
		health.SetValue(object, &v)

		got := health.GetValue(object)
		require.Equal(t, value, *erased.Value[float32](&got))
	}

	v := erased.New(Point{X: 1, Y: 2})
	position.SetValue(object, &v)

	got := position.GetValue(object)
	require.Equal(t, Point{X: 1, Y: 2}, *erased.Value[Point](&got))
}

func TestFieldOffset(t *testing.T) {
	field := NewField("y", Public, func(p *Point) *int { return &p.Y })

	var point Point
	require.Equal(t, unsafe.Offsetof(point.Y), field.Offset)

	err := recoverViolation(func() {
		var outside int
		NewField("outside", Public, func(p *Point) *int { return &outside })
	})

	require.ErrorIs(t, err, assert.ErrInvalid)

	err = recoverViolation(func() {
		NewField("nil", Public, func(p *Point) *int { return nil })
	})

	require.ErrorIs(t, err, assert.ErrInvalid)
}

type pointRef struct {
	Inner *Point
}

func TestFieldThroughPointer(t *testing.T) {
	err := recoverViolation(func() {
		NewField("x", Public, func(p *pointRef) *int { return &p.Inner.X })
	})

	require.ErrorIs(t, err, assert.ErrInvalid)
	require.Contains(t, err.Error(), "zero value")
}

func TestFieldTypeMismatch(t *testing.T) {
	field := NewField("x", Public, func(p *Point) *int { return &p.X })

	var player Player
	err := recoverViolation(func() { field.GetValue(erased.PtrOf(&player)) })
	require.ErrorIs(t, err, erased.ErrTypeMismatch)

	var point Point
	wrong := erased.New("not an int")
	err = recoverViolation(func() { field.SetValue(erased.PtrOf(&point), &wrong) })
	require.ErrorIs(t, err, erased.ErrTypeMismatch)

	err = recoverViolation(func() { field.GetAddress(erased.PtrOf(&player)) })
	require.ErrorIs(t, err, erased.ErrPrecondition)
}

func TestMethodInvoke(t *testing.T) {
	rename := NewMethod1("rename", Public, (*Player).Rename)
	require.Equal(t, typeid.Of[string](), rename.ReturnType)
	require.Equal(t, []typeid.Id{typeid.Of[string]()}, rename.ArgumentTypes)

	player := Player{Name: "alice", Health: 10}
	object := erased.PtrOf(&player)

	result := rename.Invoke(object, []erased.Any{erased.New("bob")})
	require.Equal(t, "alice", *erased.Value[string](&result))
	require.Equal(t, "bob", player.Name)

	damage := NewProc3("damage", Public, (*Player).Damage)
	require.Equal(t, typeid.Empty, damage.ReturnType)

	result = damage.Invoke(object, []erased.Any{erased.New[float32](2), erased.New(3), erased.New(false)})
	require.False(t, result.HasValue())
	require.Equal(t, float32(4), player.Health)

	name := NewMethod0("name", Public, func(p *Player) string { return p.Name })
	result = name.Invoke(object, nil)
	require.Equal(t, "bob", *erased.Value[string](&result))
}

func TestMethodArity(t *testing.T) {
	translate := NewProc2("translate", Public, (*Point).Translate)

	var point Point
	object := erased.PtrOf(&point)

	// two declared arguments, only one supplied
	err := recoverViolation(func() {
		translate.Invoke(object, []erased.Any{erased.New(1)})
	})

	require.ErrorIs(t, err, erased.ErrArity)
	require.ErrorIs(t, err, erased.ErrPrecondition)

	// the method was not called
	require.Equal(t, Point{}, point)

	err = recoverViolation(func() {
		translate.Invoke(object, []erased.Any{erased.New(1), erased.New("2")})
	})

	require.ErrorIs(t, err, erased.ErrTypeMismatch)

	var player Player
	err = recoverViolation(func() {
		translate.Invoke(erased.PtrOf(&player), []erased.Any{erased.New(1), erased.New(2)})
	})

	require.ErrorIs(t, err, erased.ErrTypeMismatch)

	translate.Invoke(object, []erased.Any{erased.New(1), erased.New(2)})
	require.Equal(t, Point{X: 1, Y: 2}, point)
}

func TestMethodFunc(t *testing.T) {
	lengthSquared := NewMethodFunc("length_squared", Public, Point.LengthSquared)
	require.True(t, lengthSquared.Const)
	require.Equal(t, typeid.Of[Point](), lengthSquared.ObjectType)
	require.Equal(t, typeid.Of[int](), lengthSquared.ReturnType)
	require.Empty(t, lengthSquared.ArgumentTypes)

	point := Point{X: 3, Y: 4}
	result := lengthSquared.Invoke(erased.PtrOf(&point), nil)
	require.Equal(t, 25, *erased.Value[int](&result))

	translate := NewMethodFunc("translate", Public, (*Point).Translate)
	require.False(t, translate.Const)
	require.Equal(t, typeid.Empty, translate.ReturnType)

	result = translate.Invoke(erased.PtrOf(&point), []erased.Any{erased.New(1), erased.New(1)})
	require.False(t, result.HasValue())
	require.Equal(t, Point{X: 4, Y: 5}, point)

	err := recoverViolation(func() {
		translate.Invoke(erased.PtrOf(&point), []erased.Any{erased.New(1)})
	})

	require.ErrorIs(t, err, erased.ErrArity)
}

func TestMethodFuncVariadic(t *testing.T) {
	tags := NewMethodFunc("tags", Public, (*Player).Tags)
	require.Equal(t, []typeid.Id{typeid.Of[string](), typeid.Of[[]string]()}, tags.ArgumentTypes)

	var player Player
	result := tags.Invoke(erased.PtrOf(&player), []erased.Any{
		erased.New("#"),
		erased.New([]string{"a", "b"}),
	})

	require.Equal(t, []string{"#a", "#b"}, *erased.Value[[]string](&result))
}

func TestMethodFuncInvalid(t *testing.T) {
	err := recoverViolation(func() { NewMethodFunc("nope", Public, 5) })
	require.ErrorIs(t, err, assert.ErrInvalid)

	err = recoverViolation(func() { NewMethodFunc("nope", Public, func() {}) })
	require.ErrorIs(t, err, assert.ErrInvalid)

	err = recoverViolation(func() {
		NewMethodFunc("nope", Public, func(*Point) (int, int) { return 0, 0 })
	})
	require.ErrorIs(t, err, assert.ErrInvalid)
}

type fieldSummary struct {
	Name       string
	Type       typeid.Id
	Access     Access
	Attributes []string
}

type methodSummary struct {
	Name          string
	ReturnType    typeid.Id
	ArgumentTypes []typeid.Id
	Const         bool
}

func summarize(ty *Type) ([]fieldSummary, []methodSummary) {
	var fields []fieldSummary
	for _, field := range ty.Fields {
		fields = append(fields, fieldSummary{field.Name, field.Type, field.Access, field.Attributes})
	}

	var methods []methodSummary
	for _, method := range ty.Methods {
		methods = append(methods, methodSummary{method.Name, method.ReturnType, method.ArgumentTypes, method.Const})
	}

	return fields, methods
}

type Named struct {
	Name string `neat:"editable"`
}

type Monster struct {
	Named

	Level  int     `neat:"editable,serialize"`
	Speed  float64 `neat:""`
	target *Monster
	cache  []byte `neat:"-"`

	destroyed *int
}

func (m *Monster) Destroy() {
	if m.destroyed != nil {
		*m.destroyed += 1
	}
}

func (m *Monster) LevelUp(levels int) {
	m.Level += levels
}

func (m Monster) IsBoss() bool {
	return m.Level > 10
}

func TestDescribe(t *testing.T) {
	ty := Describe[Monster]("Monster")

	require.Equal(t, "Monster", ty.Name)
	require.Equal(t, typeid.Of[Monster](), ty.Id)
	require.Equal(t, []BaseClass{{Base: typeid.Of[Named](), Access: Public}}, ty.Bases)
	require.True(t, ty.HasBase(typeid.Of[Named]()))

	fields, methods := summarize(&ty)

	expectedFields := []fieldSummary{
		{"Named", typeid.Of[Named](), Public, nil},
		{"Level", typeid.Of[int](), Public, []string{"editable", "serialize"}},
		{"Speed", typeid.Of[float64](), Public, nil},
		{"target", typeid.Of[*Monster](), Private, nil},
		{"destroyed", typeid.Of[*int](), Private, nil},
	}

	// methods appear in lexicographic order, Destroy is not a method
	expectedMethods := []methodSummary{
		{"IsBoss", typeid.Of[bool](), nil, true},
		{"LevelUp", typeid.Empty, []typeid.Id{typeid.Of[int]()}, false},
	}

	if diff := cmp.Diff(expectedFields, fields); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(expectedMethods, methods); diff != "" {
		t.Errorf("methods mismatch (-want +got):\n%s", diff)
	}

	require.NotNil(t, ty.Destructor)
}

func TestDescribeAccessors(t *testing.T) {
	ty := Describe[Monster]("Monster")

	other := &Monster{Level: 99}
	monster := Monster{Named: Named{Name: "orc"}, Level: 3}
	object := erased.PtrOf(&monster)

	level := ty.FieldByName("Level").GetValue(object)
	require.Equal(t, 3, *erased.Value[int](&level))

	target := erased.New(other)
	ty.FieldByName("target").SetValue(object, &target)
	require.Same(t, other, monster.target)

	named := ty.FieldByName("Named").GetAddress(object)
	require.Same(t, &monster.Named, erased.Cast[Named](named))

	ty.MethodByName("LevelUp").Invoke(object, []erased.Any{erased.New(10)})
	require.Equal(t, 13, monster.Level)

	isBoss := ty.MethodByName("IsBoss").Invoke(object, nil)
	require.True(t, *erased.Value[bool](&isBoss))

	require.Nil(t, ty.FieldByName("cache"))
	require.Nil(t, ty.MethodByName("Destroy"))
}

type Minion struct {
	*Named
	Power int
}

func TestDescribeEmbeddedPointer(t *testing.T) {
	ty := Describe[Minion]("Minion")

	require.Equal(t, []BaseClass{{Base: typeid.Of[Named](), Access: Public}}, ty.Bases)
	require.True(t, ty.HasBase(typeid.Of[Named]()))
	require.False(t, ty.HasBase(typeid.Of[*Named]()))

	// the field keeps the pointer type
	require.Equal(t, typeid.Of[*Named](), ty.FieldByName("Named").Type)
}

var sinkValue erased.Any

func TestDescribeFieldAllocations(t *testing.T) {
	ty := Describe[Named]("Named")
	field := ty.FieldByName("Name")

	named := Named{Name: "orc"}
	object := erased.PtrOf(&named)

	require.Equal(t, 1.0, testing.AllocsPerRun(100, func() {
		sinkValue = field.GetValue(object)
	}))

	require.Equal(t, "orc", *erased.Value[string](&sinkValue))
}

func TestCreateConstructDestruct(t *testing.T) {
	ty := Create[Monster]("Monster", nil, nil, nil)
	require.Equal(t, typeid.Of[Monster](), ty.Id)

	value := ty.Construct()
	require.Equal(t, Monster{}, *erased.Value[Monster](&value))

	destroyed := 0
	monster := Monster{destroyed: &destroyed}
	ty.Destructor(erased.PtrOf(&monster))
	require.Equal(t, 1, destroyed)

	require.Nil(t, pointType().Destructor)
}
